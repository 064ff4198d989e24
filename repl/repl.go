// Copyright © 2018 The ELPS authors

// Package repl runs an interactive binder session.  Each line is bound as
// a script submission following the previous ones, so declared locals stay
// in scope.  Bound expressions print as the source they translate to,
// followed by their type.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"

	"github.com/luthersystems/sharpbind/binder"
	"github.com/luthersystems/sharpbind/bound"
	"github.com/luthersystems/sharpbind/diagnostic"
	"github.com/luthersystems/sharpbind/symbols"
	"github.com/luthersystems/sharpbind/syntax/parser"
)

type config struct {
	stdin   io.ReadCloser
	stderr  io.WriteCloser
	context *binder.Context
	color   diagnostic.ColorMode
}

func newConfig(opts ...Option) *config {
	config := &config{color: diagnostic.ColorAuto}
	for _, opt := range opts {
		opt(config)
	}
	return config
}

type Option func(*config)

// WithStdin allows overriding the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr allows overriding the output to the REPL.
func WithStderr(stderr io.WriteCloser) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithContext binds against ctx instead of a context over the core
// library.
func WithContext(ctx *binder.Context) Option {
	return func(c *config) {
		c.context = ctx
	}
}

// WithColor sets when diagnostics are colored.
func WithColor(mode diagnostic.ColorMode) Option {
	return func(c *config) {
		c.color = mode
	}
}

// RunRepl runs a repl binding against the core library, or the context
// given by WithContext.
func RunRepl(prompt string, opts ...Option) {
	cfg := newConfig(opts...)
	if cfg.context == nil {
		ctx, err := binder.NewContext(symbols.NewCorLib(), binder.Options{})
		if err != nil {
			errlnf("Binder initialization failure: %v", err)
			os.Exit(1)
		}
		cfg.context = ctx
	}
	var out io.Writer = os.Stderr
	if cfg.stderr != nil {
		out = cfg.stderr
	}
	s := NewSession(cfg.context, out)
	s.renderer.Color = cfg.color
	RunSession(s, prompt, strings.Repeat(" ", len(prompt)), opts...)
}

// RunSession reads lines into s until the input ends or :quit.
func RunSession(s *Session, prompt, cont string, opts ...Option) {
	cfg := newConfig(opts...)
	rlCfg := &readline.Config{
		Stdout:            s.out,
		Stderr:            s.out,
		Prompt:            prompt,
		HistoryFile:       historyPath(),
		HistorySearchFold: true,
		AutoComplete:      &symbolCompleter{session: s},
	}
	ensureHistoryFilePermissions(rlCfg.HistoryFile)
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		panic(err)
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	var pending strings.Builder
	for {
		if pending.Len() == 0 {
			rl.SetPrompt(prompt)
		} else {
			rl.SetPrompt(cont)
		}
		line, err := rl.ReadLine()
		if err == readline.ErrInterrupt {
			pending.Reset()
			continue
		}
		if err != nil {
			break
		}
		if pending.Len() == 0 && strings.TrimSpace(line) == "" {
			continue
		}
		pending.WriteString(line)
		pending.WriteString("\n")
		if !balanced(pending.String()) {
			continue
		}
		input := pending.String()
		pending.Reset()
		if !s.Eval(input) {
			break
		}
	}
}

// balanced reports whether every bracket opened in src outside string
// literals is closed.
func balanced(src string) bool {
	depth := 0
	var quote rune
	escaped := false
	for _, c := range src {
		switch {
		case escaped:
			escaped = false
		case quote != 0:
			switch c {
			case '\\':
				escaped = true
			case quote:
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '{' || c == '[':
			depth++
		case c == ')' || c == '}' || c == ']':
			depth--
		}
	}
	return depth <= 0
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sharpbind_history")
}

// ensureHistoryFilePermissions creates the history file if needed and
// restricts it to the owner.
func ensureHistoryFilePermissions(path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0600) //nolint:gosec // path is derived from the home directory
	if err != nil {
		return
	}
	_ = f.Close()
	_ = os.Chmod(path, 0600)
}

func errlnf(format string, v ...interface{}) {
	if strings.HasSuffix(format, "\n") {
		errf(format, v...)
		return
	}
	errf(format+"\n", v...)
}

func errf(format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format, v...)
}

// Session is the state of an interactive binder session.
type Session struct {
	ctx      *binder.Context
	out      io.Writer
	scope    binder.ScopeID
	locals   []*symbols.Local
	renderer *diagnostic.Renderer
	inputs   int
}

// NewSession returns a session binding in the root scope of ctx and
// writing to out.
func NewSession(ctx *binder.Context, out io.Writer) *Session {
	return &Session{
		ctx:      ctx,
		out:      out,
		scope:    ctx.Root(),
		renderer: &diagnostic.Renderer{Color: diagnostic.ColorAuto, Sources: make(map[string]string)},
	}
}

// Eval handles one complete input.  It returns false when the session
// should end.
func (s *Session) Eval(input string) bool {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, ":") {
		return s.command(trimmed)
	}
	s.submit(input)
	return true
}

func (s *Session) nextFile() string {
	s.inputs++
	return fmt.Sprintf("<stdin:%d>", s.inputs)
}

// submit binds input as a submission.  An input without a trailing
// semicolon is taken to be an expression statement.
func (s *Session) submit(input string) {
	src := strings.TrimSpace(input)
	if !strings.HasSuffix(src, ";") && !strings.HasSuffix(src, "}") {
		src += ";"
	}
	file := s.nextFile()
	s.renderer.Sources[file] = src
	script, err := parser.ParseScript(file, src)
	if err != nil {
		fmt.Fprintln(s.out, err) //nolint:errcheck // best-effort error display
		return
	}
	res, err := s.ctx.BindSubmission(s.scope, script)
	if err != nil {
		fmt.Fprintln(s.out, err) //nolint:errcheck // best-effort error display
		return
	}
	s.report(res.Diagnostics)
	if res.Diagnostics.HasErrors() {
		return
	}
	s.scope = res.Scope
	s.locals = append(s.locals, res.Locals...)
	if len(res.Locals) > 0 {
		for _, l := range res.Locals {
			fmt.Fprintf(s.out, "%s : %s\n", l.Name(), typeName(l.Type())) //nolint:errcheck // best-effort REPL output
		}
		return
	}
	for _, e := range res.Exprs {
		s.printExpr(e)
	}
}

func (s *Session) printExpr(e bound.Expr) {
	t := e.Type()
	switch {
	case t == nil:
		fmt.Fprintln(s.out, e) //nolint:errcheck // best-effort REPL output
	case e.Constant() != nil:
		fmt.Fprintf(s.out, "%s : %s = %s\n", e, t, bound.FormatConstant(e.Constant().Value, t)) //nolint:errcheck // best-effort REPL output
	default:
		fmt.Fprintf(s.out, "%s : %s\n", e, t) //nolint:errcheck // best-effort REPL output
	}
}

func (s *Session) report(bag *diagnostic.Bag) {
	if bag.Len() == 0 {
		return
	}
	_ = s.renderer.RenderAll(s.out, bag.Sorted())
}

// bindExpr binds src as an expression in the session scope.
func (s *Session) bindExpr(src string) (bound.Expr, bool) {
	file := s.nextFile()
	s.renderer.Sources[file] = src
	x, err := parser.ParseExpr(file, src)
	if err != nil {
		fmt.Fprintln(s.out, err) //nolint:errcheck // best-effort error display
		return nil, false
	}
	res, err := s.ctx.BindIn(s.scope, x)
	if err != nil {
		fmt.Fprintln(s.out, err) //nolint:errcheck // best-effort error display
		return nil, false
	}
	s.report(res.Diagnostics)
	return res.Expr, !res.Diagnostics.HasErrors()
}

// typeOf binds src in the session scope without reporting and returns
// its type, or nil.
func (s *Session) typeOf(src string) symbols.Type {
	x, err := parser.ParseExpr("<complete>", src)
	if err != nil {
		return nil
	}
	res, err := s.ctx.BindIn(s.scope, x)
	if err != nil || res.Diagnostics.HasErrors() {
		return nil
	}
	return res.Expr.Type()
}

const helpText = `Enter declarations and expressions.  Commands:
  :type EXPR    print the type of EXPR
  :tree EXPR    print the bound tree of EXPR
  :locals       list the locals declared so far
  :using NS     import namespace NS
  :help         print this message
  :quit         end the session
`

func (s *Session) command(line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case ":quit", ":q":
		return false
	case ":help", ":h":
		fmt.Fprint(s.out, helpText) //nolint:errcheck // best-effort REPL output
	case ":type", ":t":
		if e, ok := s.bindExpr(arg); ok {
			fmt.Fprintln(s.out, typeName(e.Type())) //nolint:errcheck // best-effort REPL output
		}
	case ":tree":
		if e, ok := s.bindExpr(arg); ok {
			fmt.Fprint(s.out, bound.DumpString(e)) //nolint:errcheck // best-effort REPL output
		}
	case ":locals":
		for _, l := range s.locals {
			fmt.Fprintf(s.out, "%s %s\n", typeName(l.Type()), l.Name()) //nolint:errcheck // best-effort REPL output
		}
	case ":using":
		s.submit("using " + strings.TrimSuffix(arg, ";") + ";")
	default:
		fmt.Fprintf(s.out, "unknown command %s; try :help\n", name) //nolint:errcheck // best-effort REPL output
	}
	return true
}

func typeName(t symbols.Type) string {
	if t == nil {
		return "<no type>"
	}
	return t.String()
}
