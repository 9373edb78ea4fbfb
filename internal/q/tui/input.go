package tui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"unicode/utf8"
)

var (
	pasteStartSeq = []byte{0x1b, '[', '2', '0', '0', '~'}
	pasteEndSeq   = []byte{0x1b, '[', '2', '0', '1', '~'}
)

type controlSequence struct {
	key ControlKey
	alt bool
}

// keyVariants maps a base key to its shift, ctrl and ctrl+shift variants. Keys without modifier variants map to themselves.
type keyVariants struct {
	plain, shift, ctrl, ctrlShift ControlKey
}

func (v keyVariants) with(shift, ctrl bool) ControlKey {
	switch {
	case shift && ctrl:
		return v.ctrlShift
	case ctrl:
		return v.ctrl
	case shift:
		return v.shift
	}
	return v.plain
}

func sameKey(k ControlKey) keyVariants {
	return keyVariants{k, k, k, k}
}

var (
	upKeys    = keyVariants{ControlKeyUp, ControlKeyShiftUp, ControlKeyCtrlUp, ControlKeyCtrlShiftUp}
	downKeys  = keyVariants{ControlKeyDown, ControlKeyShiftDown, ControlKeyCtrlDown, ControlKeyCtrlShiftDown}
	rightKeys = keyVariants{ControlKeyRight, ControlKeyShiftRight, ControlKeyCtrlRight, ControlKeyCtrlShiftRight}
	leftKeys  = keyVariants{ControlKeyLeft, ControlKeyShiftLeft, ControlKeyCtrlLeft, ControlKeyCtrlShiftLeft}
	homeKeys  = keyVariants{ControlKeyHome, ControlKeyShiftHome, ControlKeyCtrlHome, ControlKeyCtrlShiftHome}
	endKeys   = keyVariants{ControlKeyEnd, ControlKeyShiftEnd, ControlKeyCtrlEnd, ControlKeyCtrlShiftEnd}
	pgUpKeys  = keyVariants{ControlKeyPgUp, ControlKeyPgUp, ControlKeyCtrlPgUp, ControlKeyCtrlPgUp}
	pgDnKeys  = keyVariants{ControlKeyPgDown, ControlKeyPgDown, ControlKeyCtrlPgDown, ControlKeyCtrlPgDown}
)

// controlSequenceMap holds every recognized escape sequence. It is generated in init from the xterm conventions: "CSI 1;<mod> <final>" for cursor keys,
// "CSI <n>;<mod> ~" for editing and function keys, where mod-1 is a bitmask of shift(1), alt(2), ctrl(4).
var controlSequenceMap = map[string]controlSequence{
	"\x1b\x7f": {key: ControlKeyBackspace, alt: true}, // Alt-Backspace sends ESC DEL
	"\x1b\x08": {key: ControlKeyBackspace, alt: true}, // some terminals: ESC BS
	"\x1b[Z":   {key: ControlKeyShiftTab},
	"\x1b[[A":  {key: ControlKeyF1}, // linux console
	"\x1b[[B":  {key: ControlKeyF2},
	"\x1b[[C":  {key: ControlKeyF3},
	"\x1b[[D":  {key: ControlKeyF4},
	"\x1b[[E":  {key: ControlKeyF5},
	"\x1b[a":   {key: ControlKeyShiftUp}, // urxvt
	"\x1b[b":   {key: ControlKeyShiftDown},
	"\x1b[c":   {key: ControlKeyShiftRight},
	"\x1b[d":   {key: ControlKeyShiftLeft},
	"\x1b[7^":  {key: ControlKeyCtrlHome},
	"\x1b[8^":  {key: ControlKeyCtrlEnd},
	"\x1b[5^":  {key: ControlKeyCtrlPgUp},
	"\x1b[6^":  {key: ControlKeyCtrlPgDown},
}

var controlSequencePrefixes map[string]struct{}

func init() {
	finals := map[byte]keyVariants{
		'A': upKeys, 'B': downKeys, 'C': rightKeys, 'D': leftKeys,
		'H': homeKeys, 'F': endKeys,
		'P': sameKey(ControlKeyF1), 'Q': sameKey(ControlKeyF2), 'R': sameKey(ControlKeyF3), 'S': sameKey(ControlKeyF4),
	}
	tildes := map[int]keyVariants{
		1: homeKeys, 2: sameKey(ControlKeyInsert), 3: sameKey(ControlKeyDelete), 4: endKeys,
		5: pgUpKeys, 6: pgDnKeys, 7: homeKeys, 8: endKeys,
		11: sameKey(ControlKeyF1), 12: sameKey(ControlKeyF2), 13: sameKey(ControlKeyF3), 14: sameKey(ControlKeyF4),
		15: sameKey(ControlKeyF5), 17: sameKey(ControlKeyF6), 18: sameKey(ControlKeyF7), 19: sameKey(ControlKeyF8),
		20: sameKey(ControlKeyF9), 21: sameKey(ControlKeyF10), 23: sameKey(ControlKeyF11), 24: sameKey(ControlKeyF12),
	}

	for final, v := range finals {
		// SS3 form (application cursor mode, vt100 function keys).
		controlSequenceMap["\x1bO"+string(final)] = controlSequence{key: v.plain}
		if final != 'P' && final != 'Q' && final != 'R' && final != 'S' {
			controlSequenceMap["\x1b["+string(final)] = controlSequence{key: v.plain}
		}
		for mod := 2; mod <= 8; mod++ {
			bits := mod - 1
			seq := "\x1b[1;" + strconv.Itoa(mod) + string(final)
			controlSequenceMap[seq] = controlSequence{key: v.with(bits&1 != 0, bits&4 != 0), alt: bits&2 != 0}
		}
	}
	for n, v := range tildes {
		prefix := "\x1b[" + strconv.Itoa(n)
		controlSequenceMap[prefix+"~"] = controlSequence{key: v.plain}
		for mod := 2; mod <= 8; mod++ {
			bits := mod - 1
			seq := prefix + ";" + strconv.Itoa(mod) + "~"
			controlSequenceMap[seq] = controlSequence{key: v.with(bits&1 != 0, bits&4 != 0), alt: bits&2 != 0}
		}
	}

	controlSequencePrefixes = make(map[string]struct{})
	for seq := range controlSequenceMap {
		for i := 1; i < len(seq); i++ {
			controlSequencePrefixes[seq[:i]] = struct{}{}
		}
	}
}

type inputProcessor struct {
	t       *TUI
	reader  io.Reader
	fd      int
	pending []byte

	pasteActive bool
	pasteRunes  []rune
	lastWasCR   bool
}

func newInputProcessor(t *TUI, reader io.Reader) *inputProcessor {
	ip := &inputProcessor{
		t:      t,
		reader: reader,
		fd:     -1,
	}
	if fd, ok := extractFD(reader); ok {
		ip.fd = fd
	}
	return ip
}

func (p *inputProcessor) start() {
	p.t.wg.Add(1)
	go func() {
		defer p.t.wg.Done()
		p.run()
	}()
}

func (p *inputProcessor) run() {
	buf := make([]byte, 1024)

	for {
		select {
		case <-p.t.ctx.Done():
			return
		default:
		}

		n, err := p.read(buf)
		if n > 0 {
			p.append(buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return
			}
			select {
			case <-p.t.ctx.Done():
				return
			default:
			}
		}
	}
}

func (p *inputProcessor) append(data []byte) {
	p.pending = append(p.pending, data...)
	p.processPending()
}

func (p *inputProcessor) processPending() {
	for len(p.pending) > 0 {
		if p.pasteActive {
			if p.handlePaste() {
				continue
			}
			break
		}

		if bytes.HasPrefix(p.pending, pasteStartSeq) {
			p.pasteActive = true
			p.pasteRunes = p.pasteRunes[:0]
			p.pending = p.pending[len(pasteStartSeq):]
			p.lastWasCR = false
			continue
		}

		b := p.pending[0]
		if b == 0x1b {
			if p.handleEscape() {
				continue
			}
			break
		}

		if p.handleControl(b) {
			p.pending = p.pending[1:]
			continue
		}

		if !utf8.FullRune(p.pending) {
			break
		}
		r, size := utf8.DecodeRune(p.pending)
		p.pending = p.pending[size:]
		if r == utf8.RuneError && size == 1 {
			continue
		}
		if !isPrintableRune(r) {
			continue
		}
		p.lastWasCR = false
		p.emit(KeyEvent{ControlKey: ControlKeyNone, Runes: []rune{r}})
	}
}

// handleControl emits a KeyEvent for a C0 control byte or DEL. A \n directly following \r is swallowed so CRLF-sending terminals produce one Enter.
func (p *inputProcessor) handleControl(b byte) bool {
	if b == '\n' && p.lastWasCR {
		p.lastWasCR = false
		return true
	}
	if b >= 0x20 && b != 0x7f {
		p.lastWasCR = false
		return false
	}
	key := ControlKey(b)
	if b == '\n' {
		key = ControlKeyEnter
	}
	p.lastWasCR = b == '\r'
	p.emit(KeyEvent{ControlKey: key})
	return true
}

func (p *inputProcessor) handleEscape() bool {
	p.lastWasCR = false
	if bytes.HasPrefix(p.pending, pasteEndSeq) {
		// Paste end without start: treat as escape.
		p.emit(KeyEvent{ControlKey: ControlKeyEsc})
		p.pending = p.pending[len(pasteEndSeq):]
		return true
	}
	if len(p.pending) == 1 {
		p.emit(KeyEvent{ControlKey: ControlKeyEsc})
		p.pending = p.pending[1:]
		return true
	}

	seq, length, ok, needMore := matchControlSequence(p.pending)
	if needMore {
		return false
	}
	if ok {
		p.pending = p.pending[length:]
		p.emit(KeyEvent{ControlKey: seq.key, Alt: seq.alt})
		return true
	}

	if p.pending[1] == '[' {
		// Unknown CSI: swallow it whole.
		seqLen := csiSequenceLength(p.pending)
		if seqLen == 0 {
			return false
		}
		p.pending = p.pending[seqLen:]
		return true
	}
	if p.pending[1] == 'O' && len(p.pending) < 3 {
		return false
	}

	// ESC followed by a rune is Alt+rune. ESC ESC is Alt+Esc.
	if p.pending[1] < 0x20 || p.pending[1] == 0x7f {
		key := ControlKey(p.pending[1])
		p.pending = p.pending[2:]
		p.emit(KeyEvent{ControlKey: key, Alt: true})
		return true
	}
	if !utf8.FullRune(p.pending[1:]) {
		return false
	}
	r, size := utf8.DecodeRune(p.pending[1:])
	if r == utf8.RuneError && size == 1 {
		p.emit(KeyEvent{ControlKey: ControlKeyEsc})
		p.pending = p.pending[1:]
		return true
	}
	p.emit(KeyEvent{ControlKey: ControlKeyNone, Runes: []rune{r}, Alt: true})
	p.pending = p.pending[1+size:]
	return true
}

func (p *inputProcessor) handlePaste() bool {
	if bytes.HasPrefix(p.pending, pasteEndSeq) {
		p.pending = p.pending[len(pasteEndSeq):]
		p.emitPaste()
		p.pasteActive = false
		return true
	}
	if len(p.pending) < len(pasteEndSeq) && bytes.HasPrefix(pasteEndSeq, p.pending) {
		return false
	}
	if !utf8.FullRune(p.pending) {
		return false
	}

	r, size := utf8.DecodeRune(p.pending)
	p.pending = p.pending[size:]
	if r == utf8.RuneError && size == 1 {
		return true
	}
	if r == '\r' {
		// CRLF inside a paste becomes a single newline.
		p.pasteRunes = append(p.pasteRunes, '\n')
		p.lastWasCR = true
		return true
	}
	if r == '\n' && p.lastWasCR {
		p.lastWasCR = false
		return true
	}
	p.lastWasCR = false
	if isAllowedPasteRune(r) {
		p.pasteRunes = append(p.pasteRunes, r)
	}
	return true
}

func (p *inputProcessor) emitPaste() {
	p.lastWasCR = false
	if len(p.pasteRunes) == 0 {
		return
	}
	runes := append([]rune(nil), p.pasteRunes...)
	p.emit(KeyEvent{ControlKey: ControlKeyNone, Runes: runes, Paste: true})
}

func (p *inputProcessor) emit(ev KeyEvent) {
	p.t.Send(ev)
}

func csiSequenceLength(buf []byte) int {
	if len(buf) < 2 || buf[0] != 0x1b || buf[1] != '[' {
		return 0
	}
	for i := 2; i < len(buf); i++ {
		b := buf[i]
		if b >= 0x40 && b <= 0x7e {
			return i + 1
		}
	}
	return 0
}

func isPrintableRune(r rune) bool {
	return r >= 0x20 && r != 0x7f
}

func isAllowedPasteRune(r rune) bool {
	return r == '\n' || r == '\t' || isPrintableRune(r)
}

// matchControlSequence finds the shortest known sequence at the start of buf. needMore reports that buf is a strict prefix of some known sequence.
func matchControlSequence(buf []byte) (seq controlSequence, length int, ok bool, needMore bool) {
	for i := 1; i <= len(buf); i++ {
		s := string(buf[:i])
		if found, hit := controlSequenceMap[s]; hit {
			return found, i, true, false
		}
		if _, prefix := controlSequencePrefixes[s]; !prefix {
			return controlSequence{}, 0, false, false
		}
	}
	return controlSequence{}, 0, false, true
}
