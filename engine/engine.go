// Package engine wires the lower-level packages (mem, strpool, eqtb,
// lexer, expand, scan, node, pack, linebreak, page, font, dvi, format)
// into the main control loop: the single pass that reads tokens,
// builds lists in the current mode, and ships pages out to a DVI
// stream (spec.md §4.3, §4.5, §5).
package engine

import (
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/ha1tch/gotex/align"
	"github.com/ha1tch/gotex/dvi"
	"github.com/ha1tch/gotex/eqtb"
	"github.com/ha1tch/gotex/expand"
	"github.com/ha1tch/gotex/font"
	"github.com/ha1tch/gotex/format"
	"github.com/ha1tch/gotex/hyphen"
	"github.com/ha1tch/gotex/lexer"
	"github.com/ha1tch/gotex/linebreak"
	"github.com/ha1tch/gotex/mem"
	"github.com/ha1tch/gotex/mlist"
	"github.com/ha1tch/gotex/node"
	"github.com/ha1tch/gotex/pack"
	"github.com/ha1tch/gotex/page"
	"github.com/ha1tch/gotex/scan"
	"github.com/ha1tch/gotex/strpool"
	"github.com/ha1tch/gotex/texerr"
	"github.com/ha1tch/gotex/token"
)

// defaultHSize/defaultVSize are plain TeX's \hsize/\vsize defaults
// (6.5in/8.9in, rounded to whole points at 72pt/in) expressed in
// scaled points, carried over from original_source/src/constants.rs
// (SPEC_FULL.md §5) rather than re-derived.
const (
	defaultHSize    = 468 * mem.Unity // 6.5in
	defaultVSize    = 641 * mem.Unity // 8.9in
	defaultMaxDepth = 4 * mem.Unity
)

// Engine bundles one job's entire mutable state: the memory arena and
// string pool beneath it, the equivalents table, the input/expansion/
// scanning pipeline built on top of that, the list being accumulated
// in the current mode, the page builder, the loaded font table, and
// the DVI writer pages are shipped to (spec.md §3, §4.3, §5 — one
// engine per job, nothing shared across jobs).
type Engine struct {
	Config      Config
	Interaction InteractionMode
	Logger      *Logger
	IniMode     bool

	Arena *mem.Arena
	Pool  *strpool.Pool
	Eqtb  *eqtb.Table
	Stack *lexer.Stack
	Tz    *lexer.Tokenizer
	Ex    *expand.Expander
	Sc    *scan.Scanner

	Mode  Mode
	hlist *node.Node // horizontal list under construction (Mode.horizontal())
	vlist *node.Node // main vertical list awaiting the page builder

	page        *page.Builder
	curFont     int32
	nextFontNum int32
	fonts       map[int32]*font.Font
	hsize       int32

	Hyphenation map[int]*hyphen.Dictionary
	fontRecords []format.FontRecord

	dviOut     *dvi.Writer
	pageCount  uint16
	maxV, maxH int32
	maxPush    uint16

	jobName string
	ended   bool
}

// New builds an Engine ready to process one job. cfg's hyphenation
// language seeds an initial (empty) dictionary; everything else
// follows plain TeX's compiled-in defaults until \gotex.toml or the
// source itself overrides them.
func New(cfg Config, interaction InteractionMode, ini bool) *Engine {
	eq := eqtb.New()
	stack := lexer.NewStack()
	tz := lexer.New(stack, eq)
	ex := expand.New(tz, eq, stack)
	sc := scan.New(ex)

	e := &Engine{
		Config:      cfg,
		Interaction: interaction,
		Logger:      NewLogger(interaction.Batch()),
		IniMode:     ini,
		Arena:       mem.NewArena(mem.MemMax),
		Pool:        strpool.New(),
		Eqtb:        eq,
		Stack:       stack,
		Tz:          tz,
		Ex:          ex,
		Sc:          sc,
		Mode:        VerticalMode,
		page:        page.NewBuilder(defaultVSize, defaultMaxDepth),
		fonts:       make(map[int32]*font.Font),
		Hyphenation: map[int]*hyphen.Dictionary{cfg.HyphenLanguage: hyphen.NewDictionary(cfg.HyphenLanguage)},
		dviOut:      dvi.New("gotex"),
		maxH:        defaultHSize,
		hsize:       defaultHSize,
	}
	return e
}

// LoadFont opens path as a .tfm file, scales it to atSize (0 = the
// file's own design size), and assigns it font number f (spec.md
// §4.11). The font is also registered for the eventual DVI font-def
// table and the \dump font table.
func (e *Engine) LoadFont(f int32, path string, atSize int32) error {
	fh, err := os.Open(path)
	if err != nil {
		return texerr.Wrap(err, texerr.Fatal, "cannot open font file %q", path)
	}
	defer fh.Close()

	fnt, err := font.Load(fh, atSize, 0)
	if err != nil {
		return errors.Wrapf(err, "loading font %q", path)
	}
	e.fonts[f] = fnt
	e.fontRecords = append(e.fontRecords, format.FontRecord{
		Number:     f,
		Path:       path,
		AtSize:     atSize,
		Checksum:   fnt.Checksum,
		DesignSize: fnt.DesignSize,
	})
	return nil
}

// Run opens path as the job's primary input file and executes main
// control until the input stack empties or \end is processed (spec.md
// §4.2, §4.3). The returned error, if any, is also already logged as
// a diagnostic.
func (e *Engine) Run(path string) error {
	e.jobName = jobNameFromPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return texerr.Wrap(err, texerr.Fatal, "cannot open input file %q", path)
	}
	e.Stack.PushFile(lexer.NewFileSource(path, string(data)))

	e.dviOut.Preamble()

	for !e.ended {
		t, ok, err := e.Ex.GetXToken()
		if err != nil {
			e.Logger.Diagnostic(err.Error(), nil)
			return err
		}
		if !ok {
			break
		}
		if err := e.dispatch(t); err != nil {
			e.Logger.Diagnostic(err.Error(), nil)
			return err
		}
	}
	if !e.ended {
		if err := e.finishJob(); err != nil {
			e.Logger.Diagnostic(err.Error(), nil)
			return err
		}
	}
	return e.Logger.Sync()
}

// dispatch handles one fully expanded token that the expander declined
// to consume itself: either a character that joins the current list,
// or a non-expandable control sequence main control recognizes
// directly (spec.md §4.3, §4.5).
func (e *Engine) dispatch(t token.Token) error {
	if !t.IsCS() {
		return e.dispatchChar(t)
	}
	switch t.CS {
	case "par":
		return e.endParagraph()
	case "end", "dump":
		if t.CS == "dump" {
			if !e.IniMode {
				return texerr.New(texerr.Semantic, "\\dump only valid in -ini mode")
			}
			if err := e.dumpFormat(); err != nil {
				return err
			}
		}
		return e.finishJob()
	case "relax", "indent", "noindent":
		return nil
	case "def", "gdef":
		return e.defineMacro(t.CS == "gdef")
	case "count":
		return e.assignCount()
	case "advance":
		return e.advanceAssignment()
	case "hsize":
		return e.assignHsize()
	case "font":
		return e.defineFont()
	case "hbox", "vbox":
		return e.appendBox(t.CS == "vbox")
	case "halign":
		return e.doHalign()
	default:
		m, ok := e.Eqtb.Meaning(t.CS)
		if !ok {
			return texerr.New(texerr.Semantic, "undefined control sequence \\%s", t.CS)
		}
		return e.dispatchMeaning(t.CS, m)
	}
}

// dispatchMeaning handles a control sequence whose eqtb meaning isn't
// one of the expander's own primitives or one of main control's own
// assignment/box keywords: font selection (reachable once \font has
// defined a FontIdentifier meaning) is the one case this engine
// implements; anything else remains a no-op.
func (e *Engine) dispatchMeaning(name string, m eqtb.Meaning) error {
	switch m.Kind {
	case eqtb.FontIdentifier:
		e.selectFont(m.Value)
		return nil
	default:
		return nil
	}
}

func (e *Engine) selectFont(f int32) {
	e.curFont = f
	e.dviOut.FontNum(f)
}

// dispatchChar appends one character token to the current list,
// entering horizontal mode first if a letter or "other" character
// starts a paragraph from vertical mode (spec.md §4.5).
func (e *Engine) dispatchChar(t token.Token) error {
	switch t.Cat {
	case token.Letter, token.Other:
		if !e.Mode.horizontal() {
			e.startParagraph()
		}
		e.appendChar(t.Char)
		return nil
	case token.Spacer:
		if e.Mode.horizontal() {
			e.appendInterwordGlue()
		}
		return nil
	case token.EndLine:
		if e.Mode.horizontal() {
			e.appendInterwordGlue()
		}
		return nil
	case token.MathShift:
		fragment, err := e.buildMath()
		if err != nil {
			return err
		}
		if !e.Mode.horizontal() {
			e.startParagraph()
		}
		e.hlist = node.Append(e.hlist, fragment)
		return nil
	default:
		return nil
	}
}

func (e *Engine) startParagraph() {
	e.Mode = HorizontalMode
	e.hlist = nil
}

func (e *Engine) appendChar(ch byte) {
	n := node.NewChar(int(e.curFont), ch)
	fnt := e.fonts[e.curFont]
	if fnt != nil {
		n.Width, n.Height, n.Depth = charMetrics(fnt, ch)
	}
	e.hlist = node.Append(e.hlist, n)
}

func (e *Engine) appendInterwordGlue() {
	fnt := e.fonts[e.curFont]
	var width, stretch, shrink int32
	if fnt != nil && len(fnt.Params) > 3 {
		width, stretch, shrink = fnt.Params[2], fnt.Params[3], fnt.Params[1]
		if len(fnt.Params) > 4 {
			shrink = fnt.Params[4]
		}
	}
	spec := &node.GlueSpec{Width: width, Stretch: stretch, Shrink: shrink}
	e.hlist = node.Append(e.hlist, node.NewGlue(spec, 0))
}

// charMetrics looks up c's width/height/depth from fnt's shared
// dimension arrays via its CharInfo entry (spec.md §4.11).
func charMetrics(fnt *font.Font, c byte) (w, h, d int32) {
	idx := int(c) - fnt.BC
	if idx < 0 || idx >= len(fnt.CharInfos) {
		return 0, 0, 0
	}
	ci := fnt.CharInfos[idx]
	if int(ci.WidthIndex) < len(fnt.Widths) {
		w = fnt.Widths[ci.WidthIndex]
	}
	if int(ci.HeightIndex) < len(fnt.Heights) {
		h = fnt.Heights[ci.HeightIndex]
	}
	if int(ci.DepthIndex) < len(fnt.Depths) {
		d = fnt.Depths[ci.DepthIndex]
	}
	return
}

// endParagraph breaks the accumulated horizontal list into lines
// (spec.md §4.7), packs each into an hbox, and contributes each
// resulting box to the page builder as a new line of the main
// vertical list (spec.md §4.9), then returns to vertical mode.
func (e *Engine) endParagraph() error {
	if !e.Mode.horizontal() || e.hlist == nil {
		e.Mode = VerticalMode
		return nil
	}
	shape := linebreak.Shape{Widths: []int32{e.hsize}}
	result := linebreak.BreakParagraph(e.hlist, shape, linebreak.DefaultParams)

	for _, line := range result.Lines {
		e.page.Contribute(line.Box)
		e.vlist = node.Append(e.vlist, line.Box)
		if line.Diagnostic.Underfull {
			e.Logger.Warning("underfull hbox (badness amount %d)", line.Diagnostic.Amount)
		}
		if line.Diagnostic.Overfull {
			e.Logger.Warning("overfull hbox (%dsp too wide)", line.Diagnostic.Amount)
		}
	}
	e.hlist = nil
	e.Mode = VerticalMode
	return e.shipOutReadyPages()
}

// shipOutReadyPages drains every page the builder has committed to
// since the last call and writes each as one DVI page (spec.md §4.9,
// §4.12).
func (e *Engine) shipOutReadyPages() error {
	for {
		p := e.page.TakePage()
		if p == nil {
			return nil
		}
		if err := e.shipOut(p); err != nil {
			return err
		}
	}
}

// shipOut packages a page's body into a vbox and renders it as one DVI
// bop/eop sequence, walking character and box nodes to emit motion
// and set_char/rule opcodes (spec.md §4.9, §4.12).
func (e *Engine) shipOut(p *page.Page) error {
	vbox := pack.VPack(p.Body, defaultVSize, pack.Additional, -1, mem.InfBad)
	if vbox.Box.Height > e.maxV {
		e.maxV = vbox.Box.Height
	}
	if vbox.Box.Width > e.maxH {
		e.maxH = vbox.Box.Width
	}

	var counts [10]int32
	e.dviOut.BeginPage(counts)
	e.renderVList(vbox.Box.List, 0)
	e.dviOut.EndPage()
	e.pageCount++
	return nil
}

// renderVList walks a vertical list emitting down-motion and
// recursing into nested boxes, the minimal subset of TeX's ship_out
// box-walking this engine implements (spec.md §4.12).
func (e *Engine) renderVList(list *node.Node, depth int) {
	for n := list; n != nil; n = n.Next {
		switch n.Tag {
		case mem.TagKern:
			e.dviOut.Down(n.KernWidth)
		case mem.TagGlue:
			if n.Glue != nil {
				e.dviOut.Down(n.Glue.Width)
			}
		case mem.TagHList:
			e.dviOut.Push()
			e.renderHList(n.List)
			e.dviOut.Pop()
			e.dviOut.Down(n.Height + n.Depth)
		case mem.TagVList:
			e.dviOut.Push()
			e.renderVList(n.List, depth+1)
			e.dviOut.Pop()
			e.dviOut.Down(n.Height + n.Depth)
		case mem.TagRule:
			e.dviOut.SetRule(n.RuleHeight, n.RuleWidth)
		}
	}
}

func (e *Engine) renderHList(list *node.Node) {
	for n := list; n != nil; n = n.Next {
		switch n.Tag {
		case mem.TagChar:
			if int32(n.Font) != e.dviOut.CurrentFont() {
				e.dviOut.FontNum(int32(n.Font))
			}
			e.dviOut.SetChar(n.Char)
		case mem.TagKern:
			e.dviOut.Right(n.KernWidth)
		case mem.TagGlue:
			if n.Glue != nil {
				e.dviOut.Right(n.Glue.Width)
			}
		case mem.TagRule:
			e.dviOut.SetRule(n.RuleHeight, n.RuleWidth)
		case mem.TagHList, mem.TagVList:
			e.dviOut.Push()
			if n.Tag == mem.TagHList {
				e.renderHList(n.List)
			} else {
				e.renderVList(n.List, 0)
			}
			e.dviOut.Pop()
			e.dviOut.Right(n.Width)
		}
	}
}

// finishJob flushes any open paragraph, ships any remaining vertical
// material as a final page, and writes the DVI trailer (spec.md §4.12).
func (e *Engine) finishJob() error {
	if e.ended {
		return nil
	}
	e.ended = true
	if e.Mode.horizontal() {
		if err := e.endParagraph(); err != nil {
			return err
		}
	}
	if final := e.page.TakePage(); final != nil {
		if err := e.shipOut(final); err != nil {
			return err
		}
	} else if e.vlist != nil {
		e.page.Contribute(node.NewPenalty(-mem.InfBad))
		if err := e.shipOutReadyPages(); err != nil {
			return err
		}
	}

	e.dviOut.Post(e.maxV, e.maxH, e.maxPush, e.pageCount, func(w *dvi.Writer) {
		for _, rec := range e.fontRecords {
			w.FontDef(rec.Number, rec.Checksum, rec.DesignSize, rec.AtSize, "", baseName(rec.Path))
		}
	})

	return os.WriteFile(e.jobName+".dvi", e.dviOut.Bytes(), 0644)
}

// dumpFormat writes the job's current state to <jobname>.fmt, per
// spec.md §4.13's \dump.
func (e *Engine) dumpFormat() error {
	snap := format.Snapshot{
		FormatIdentifier: "gotex format",
		InteractionMode:  int32(e.Interaction),
		Arena:            e.Arena,
		Pool:             e.Pool,
		Eqtb:             e.Eqtb.Dump(),
		Hyphenation:      e.Hyphenation,
		Fonts:            e.fontRecords,
	}
	out, err := os.Create(e.jobName + ".fmt")
	if err != nil {
		return texerr.Wrap(err, texerr.Fatal, "cannot create format file")
	}
	defer out.Close()
	if err := format.Dump(out, snap); err != nil {
		return texerr.Wrap(err, texerr.Fatal, "writing format file")
	}
	return nil
}

// LoadFormat restores an engine's eqtb/arena/pool/hyphenation state
// from a previously \dump'd format file, the way a non-ini run
// preloads plain.fmt (spec.md §4.13, §6.1).
func (e *Engine) LoadFormat(path string) error {
	in, err := os.Open(path)
	if err != nil {
		return texerr.Wrap(err, texerr.Fatal, "cannot open format file %q", path)
	}
	defer in.Close()
	snap, err := format.Undump(in)
	if err != nil {
		return err
	}
	e.Arena = snap.Arena
	e.Pool = snap.Pool
	e.Eqtb = eqtb.Restore(snap.Eqtb)
	e.Hyphenation = snap.Hyphenation
	e.fontRecords = snap.Fonts
	for _, rec := range snap.Fonts {
		if err := e.LoadFont(rec.Number, rec.Path, rec.AtSize); err != nil {
			return err
		}
	}
	// Rebuild the tokenizer/expander/scanner over the restored eqtb —
	// they otherwise still reference the pre-restore table.
	e.Tz = lexer.New(e.Stack, e.Eqtb)
	e.Ex = expand.New(e.Tz, e.Eqtb, e.Stack)
	e.Sc = scan.New(e.Ex)
	return nil
}

// defineMacro implements \def/\gdef: the macro name and parameter text
// are read unexpanded from the tokenizer (not the expander), folding
// each literal `#` + digit pair the tokenizer produces into the single
// token.MatchParam the macro-call contract (expand/expand.go) expects
// (spec.md §4.3's "Macro call contract").
func (e *Engine) defineMacro(global bool) error {
	nameTok, ok, err := e.Tz.GetNext()
	if err != nil {
		return err
	}
	if !ok || !nameTok.IsCS() {
		return texerr.New(texerr.Syntax, "missing control sequence inserted")
	}

	var params []token.Token
	for {
		t, ok, err := e.Tz.GetNext()
		if err != nil {
			return err
		}
		if !ok {
			return texerr.New(texerr.Syntax, "file ended while scanning definition of \\%s", nameTok.CS)
		}
		if !t.IsCS() && t.Cat == token.BeginGroup {
			break
		}
		params = append(params, t)
	}

	body, err := e.readRawBalancedGroup()
	if err != nil {
		return err
	}

	e.Eqtb.Define(nameTok.CS, eqtb.Meaning{
		Kind:   eqtb.MacroCall,
		Params: token.NewList(foldParams(params)),
		Body:   token.NewList(foldParams(body)),
	}, global)
	return nil
}

// readRawBalancedGroup reads tokens unexpanded up to (and excluding)
// the closing brace that balances an already-consumed opening one.
func (e *Engine) readRawBalancedGroup() ([]token.Token, error) {
	depth := 1
	var out []token.Token
	for {
		t, ok, err := e.Tz.GetNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, texerr.New(texerr.Syntax, "file ended inside a group")
		}
		if !t.IsCS() {
			switch t.Cat {
			case token.BeginGroup:
				depth++
			case token.EndGroup:
				depth--
				if depth == 0 {
					return out, nil
				}
			}
		}
		out = append(out, t)
	}
}

// foldParams folds each literal `#` token immediately followed by a
// digit token into one token.MatchParam, since the tokenizer (spec.md
// §4.2) never fuses them itself.
func foldParams(toks []token.Token) []token.Token {
	var out []token.Token
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if !t.IsCS() && t.Cat == token.Parameter && i+1 < len(toks) {
			next := toks[i+1]
			if !next.IsCS() && next.Char >= '1' && next.Char <= '9' {
				out = append(out, token.MatchParam(int(next.Char-'0')))
				i++
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// assignCount implements `\count<n>=<value>`, driving the scanner
// (scan.Scanner) that was otherwise unreachable from main control
// (spec.md §4.4).
func (e *Engine) assignCount() error {
	n, err := e.Sc.ScanInt()
	if err != nil {
		return err
	}
	if err := e.Sc.ScanOptionalEquals(); err != nil {
		return err
	}
	v, err := e.Sc.ScanInt()
	if err != nil {
		return err
	}
	e.Eqtb.SetCount(int(n), v, false)
	return nil
}

// advanceAssignment implements `\advance\count<n> by <value>`.
func (e *Engine) advanceAssignment() error {
	t, ok, err := e.Ex.GetXToken()
	if err != nil {
		return err
	}
	if !ok || !t.IsCS() || t.CS != "count" {
		return texerr.New(texerr.Semantic, "\\advance requires a \\count register")
	}
	n, err := e.Sc.ScanInt()
	if err != nil {
		return err
	}
	if _, err := e.Sc.ScanKeyword("by"); err != nil {
		return err
	}
	v, err := e.Sc.ScanInt()
	if err != nil {
		return err
	}
	e.Eqtb.SetCount(int(n), e.Eqtb.Count(int(n))+v, false)
	return nil
}

// assignHsize implements `\hsize=<dimen>`, the line-breaking width
// the paragraph shaper (linebreak.Shape) uses (spec.md §4.4, §4.7).
func (e *Engine) assignHsize() error {
	if err := e.Sc.ScanOptionalEquals(); err != nil {
		return err
	}
	v, err := e.Sc.ScanDimen()
	if err != nil {
		return err
	}
	e.Eqtb.SetDimenPar("hsize", v, false)
	e.hsize = v
	return nil
}

// defineFont implements `\font\name=<filename>[ at <dimen>]`: it loads
// the font (LoadFont) under a freshly assigned font number and defines
// \name as a FontIdentifier meaning, the assignment dispatchMeaning's
// FontIdentifier case requires to ever fire (spec.md §4.11).
func (e *Engine) defineFont() error {
	nameTok, ok, err := e.Tz.GetNext()
	if err != nil {
		return err
	}
	if !ok || !nameTok.IsCS() {
		return texerr.New(texerr.Syntax, "missing control sequence inserted")
	}
	if err := e.Sc.ScanOptionalEquals(); err != nil {
		return err
	}
	filename, err := e.scanFileName()
	if err != nil {
		return err
	}
	var atSize int32
	if ok, err := e.Sc.ScanKeyword("at"); err != nil {
		return err
	} else if ok {
		atSize, err = e.Sc.ScanDimen()
		if err != nil {
			return err
		}
	}

	e.nextFontNum++
	num := e.nextFontNum
	if err := e.LoadFont(num, filename, atSize); err != nil {
		return err
	}
	e.Eqtb.Define(nameTok.CS, eqtb.Meaning{Kind: eqtb.FontIdentifier, Value: num}, false)
	return nil
}

// scanFileName reads a bare file name: letters and "other" characters
// up to the first space or control sequence (spec.md §4.4's file-name
// scanning, simplified to 8-bit catcodes only).
func (e *Engine) scanFileName() (string, error) {
	var name []byte
	started := false
	for {
		t, ok, err := e.Ex.GetXToken()
		if err != nil {
			return "", err
		}
		if !ok {
			break
		}
		if t.IsCS() {
			e.Stack.PushTokens(&lexer.TokenSource{List: token.NewList([]token.Token{t})})
			break
		}
		if t.Cat == token.Spacer {
			if started {
				break
			}
			continue
		}
		if t.Cat != token.Letter && t.Cat != token.Other {
			e.Stack.PushTokens(&lexer.TokenSource{List: token.NewList([]token.Token{t})})
			break
		}
		started = true
		name = append(name, t.Char)
	}
	if len(name) == 0 {
		return "", texerr.New(texerr.Syntax, "missing file name")
	}
	return string(name), nil
}

// boxSpec is the resolved "to <dimen>"/"spread <dimen>"/natural target
// a \hbox or \vbox packages against (spec.md §4.6).
type boxSpec struct {
	kind pack.Kind
	size int32
}

func (e *Engine) scanBoxSpec() (boxSpec, error) {
	if ok, err := e.Sc.ScanKeyword("to"); err != nil {
		return boxSpec{}, err
	} else if ok {
		v, err := e.Sc.ScanDimen()
		if err != nil {
			return boxSpec{}, err
		}
		return boxSpec{kind: pack.Exactly, size: v}, nil
	}
	if ok, err := e.Sc.ScanKeyword("spread"); err != nil {
		return boxSpec{}, err
	} else if ok {
		v, err := e.Sc.ScanDimen()
		if err != nil {
			return boxSpec{}, err
		}
		return boxSpec{kind: pack.Additional, size: v}, nil
	}
	return boxSpec{kind: pack.Additional, size: 0}, nil
}

// appendBox implements \hbox/\vbox: build the box, then contribute it
// to whichever list is current — the enclosing hlist in horizontal
// mode, the enclosing vlist if this box itself sits inside another box
// or alignment cell being built (InternalVerticalMode/restricted
// horizontal), or straight to the page only when the box is genuinely
// top-level material (spec.md §4.6, §4.9).
func (e *Engine) appendBox(vertical bool) error {
	box, err := e.buildBox(vertical)
	if err != nil {
		return err
	}
	switch {
	case e.Mode.horizontal():
		e.hlist = node.Append(e.hlist, box)
		return nil
	case e.Mode == InternalVerticalMode:
		e.vlist = node.Append(e.vlist, box)
		return nil
	default:
		e.vlist = node.Append(e.vlist, box)
		e.page.Contribute(box)
		return e.shipOutReadyPages()
	}
}

// buildBox scans a box specifier and a balanced `{...}` group,
// recursing main control over its contents in a nested mode with its
// own hlist/vlist, then packages the result (spec.md §4.6's
// hpack/vpack, driven by \hbox/\vbox instead of being dead code).
func (e *Engine) buildBox(vertical bool) (*node.Node, error) {
	spec, err := e.scanBoxSpec()
	if err != nil {
		return nil, err
	}
	open, ok, err := e.Ex.GetXToken()
	if err != nil {
		return nil, err
	}
	if !ok || open.IsCS() || open.Cat != token.BeginGroup {
		return nil, texerr.New(texerr.Syntax, "missing { inserted")
	}

	e.Eqtb.PushGroup(0)
	savedMode, savedH, savedV := e.Mode, e.hlist, e.vlist
	if vertical {
		e.Mode = InternalVerticalMode
	} else {
		e.Mode = RestrictedHorizontalMode
	}
	e.hlist, e.vlist = nil, nil

	depth := 1
	for {
		t, ok, err := e.Ex.GetXToken()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, texerr.New(texerr.Syntax, "file ended inside a box")
		}
		if !t.IsCS() && t.Cat == token.EndGroup {
			depth--
			if depth == 0 {
				break
			}
			continue
		}
		if !t.IsCS() && t.Cat == token.BeginGroup {
			depth++
		}
		if err := e.dispatch(t); err != nil {
			return nil, err
		}
	}

	if vertical && e.Mode.horizontal() {
		if err := e.endParagraph(); err != nil {
			return nil, err
		}
	}
	var list *node.Node
	if vertical {
		list = e.vlist
	} else {
		list = e.hlist
	}
	e.Mode, e.hlist, e.vlist = savedMode, savedH, savedV
	if err := e.Eqtb.PopGroup(); err != nil {
		return nil, err
	}

	var result pack.Result
	if vertical {
		result = pack.VPack(list, spec.size, spec.kind, -1, mem.InfBad)
	} else {
		result = pack.HPack(list, spec.size, spec.kind, -1, mem.InfBad)
	}
	if result.Diagnostic.Underfull {
		e.Logger.Warning("underfull box (badness amount %d)", result.Diagnostic.Amount)
	}
	if result.Diagnostic.Overfull {
		e.Logger.Warning("overfull box (%dsp too wide)", result.Diagnostic.Amount)
	}
	return result.Box, nil
}

// buildMath implements a minimal math mode: characters between a pair
// of `$` tokens each become an ord noad whose nucleus is a character
// box, translated to an hlist by mlist.ToHList (spec.md §2's Math
// builder component, restored to scope — see SPEC_FULL.md).
func (e *Engine) buildMath() (*node.Node, error) {
	var noads *node.Node
	for {
		t, ok, err := e.Ex.GetXToken()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, texerr.New(texerr.Syntax, "file ended inside math mode")
		}
		if !t.IsCS() && t.Cat == token.MathShift {
			break
		}
		if !t.IsCS() && (t.Cat == token.Letter || t.Cat == token.Other) {
			noads = node.Append(noads, e.charNoad(t.Char))
		}
	}
	return mlist.ToHList(noads), nil
}

// charNoad builds an ord noad (spec.md §3.1's noad variants) whose
// nucleus is a single character box measured against the current font.
func (e *Engine) charNoad(ch byte) *node.Node {
	n := node.NewChar(int(e.curFont), ch)
	fnt := e.fonts[e.curFont]
	if fnt != nil {
		n.Width, n.Height, n.Depth = charMetrics(fnt, ch)
	}
	return &node.Node{Tag: mem.TagNoadOrd, Nucleus: n}
}

// doHalign implements \halign{<preamble>\cr <row>\cr ...}: it scans
// the column preamble and every row unexpanded-then-expanded the way
// the rest of main control does, replicates a lone repeating column
// template to match the widest row, and feeds the result to
// align.Engine.Build — the alignment engine this codebase built but
// never drove from real input (spec.md §4.10).
func (e *Engine) doHalign() error {
	open, ok, err := e.Ex.GetXToken()
	if err != nil {
		return err
	}
	if !ok || open.IsCS() || open.Cat != token.BeginGroup {
		return texerr.New(texerr.Syntax, "missing { inserted")
	}

	columns, err := e.scanAlignPreamble()
	if err != nil {
		return err
	}

	var rows []align.Row
	for {
		row, more, err := e.scanAlignRow()
		if err != nil {
			return err
		}
		if row != nil {
			rows = append(rows, *row)
		}
		if !more {
			break
		}
	}

	maxCells := len(columns)
	for _, r := range rows {
		if len(r.Cells) > maxCells {
			maxCells = len(r.Cells)
		}
	}
	columns = expandColumns(columns, maxCells)

	aligner := align.New(align.Preamble{Columns: columns})
	rowLists := aligner.Build(rows)

	if e.Mode.horizontal() {
		if err := e.endParagraph(); err != nil {
			return err
		}
	}
	for _, rl := range rowLists {
		box := pack.HPack(rl, 0, pack.Additional, -1, mem.InfBad).Box
		e.vlist = node.Append(e.vlist, box)
		e.page.Contribute(box)
	}
	return e.shipOutReadyPages()
}

// scanAlignPreamble reads column templates unexpanded (their u/v parts
// are template text, not content to typeset yet) up to `\cr`, splitting
// on `&` between templates and on `#` within one (spec.md §4.10). A
// preamble with a single template is the repeating-column idiom:
// it stands in for as many columns as a row actually uses.
func (e *Engine) scanAlignPreamble() ([]align.Column, error) {
	var columns []align.Column
	var cur []token.Token
	for {
		t, ok, err := e.Tz.GetNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, texerr.New(texerr.Syntax, "file ended in alignment preamble")
		}
		if t.IsCS() && t.CS == "cr" {
			columns = append(columns, buildColumn(cur))
			break
		}
		if !t.IsCS() && t.Cat == token.TabMark {
			columns = append(columns, buildColumn(cur))
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	if len(columns) == 1 {
		columns[0].Repeating = true
	}
	return columns, nil
}

func buildColumn(toks []token.Token) align.Column {
	var u, v []token.Token
	seenHash := false
	for _, t := range toks {
		if !seenHash && !t.IsCS() && t.Cat == token.Parameter {
			seenHash = true
			continue
		}
		if seenHash {
			v = append(v, t)
		} else {
			u = append(u, t)
		}
	}
	return align.Column{UPart: token.NewList(u), VPart: token.NewList(v)}
}

// expandColumns replicates the last (repeating) column template until
// there are n columns, the engine-level counterpart of the repeat
// semantics align.Engine.Build's per-cell modulo indexing assumes.
func expandColumns(cols []align.Column, n int) []align.Column {
	if len(cols) >= n || len(cols) == 0 {
		return cols
	}
	out := make([]align.Column, n)
	copy(out, cols)
	last := cols[len(cols)-1]
	for i := len(cols); i < n; i++ {
		out[i] = align.Column{UPart: last.UPart, VPart: last.VPart, Repeating: last.Repeating}
	}
	return out
}

// scanAlignRow reads one row's cells up to `\cr`, or reports the
// alignment's closing `}` by returning (nil, false, nil).
func (e *Engine) scanAlignRow() (*align.Row, bool, error) {
	t, ok, err := e.Ex.GetXToken()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, texerr.New(texerr.Syntax, "file ended in alignment body")
	}
	if !t.IsCS() && t.Cat == token.EndGroup {
		return nil, false, nil
	}
	e.Stack.PushTokens(&lexer.TokenSource{List: token.NewList([]token.Token{t})})

	var cells []align.Cell
	for {
		content, terminator, err := e.scanAlignCell()
		if err != nil {
			return nil, false, err
		}
		cells = append(cells, align.Cell{Content: content})
		if terminator == "cr" {
			break
		}
	}
	return &align.Row{Cells: cells}, true, nil
}

// scanAlignCell builds one cell's content in restricted horizontal
// mode (spec.md §4.5's mode for alignment entries), stopping at the
// next `&` or `\cr`.
func (e *Engine) scanAlignCell() (*node.Node, string, error) {
	savedMode, savedH, savedV := e.Mode, e.hlist, e.vlist
	e.Mode = RestrictedHorizontalMode
	e.hlist = nil

	terminator := ""
	for terminator == "" {
		t, ok, err := e.Ex.GetXToken()
		if err != nil {
			e.Mode, e.hlist, e.vlist = savedMode, savedH, savedV
			return nil, "", err
		}
		if !ok {
			e.Mode, e.hlist, e.vlist = savedMode, savedH, savedV
			return nil, "", texerr.New(texerr.Syntax, "file ended in alignment cell")
		}
		switch {
		case !t.IsCS() && t.Cat == token.TabMark:
			terminator = "tab"
		case t.IsCS() && t.CS == "cr":
			terminator = "cr"
		default:
			if err := e.dispatch(t); err != nil {
				e.Mode, e.hlist, e.vlist = savedMode, savedH, savedV
				return nil, "", err
			}
		}
	}

	list := e.hlist
	e.Mode, e.hlist, e.vlist = savedMode, savedH, savedV
	return list, terminator, nil
}

func jobNameFromPath(path string) string {
	base := baseName(path)
	if i := strings.LastIndex(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

func baseName(path string) string {
	i := strings.LastIndexAny(path, "/\\")
	return path[i+1:]
}
