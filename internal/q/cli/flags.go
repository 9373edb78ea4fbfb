package cli

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

type flagKind uint8

const (
	flagBool flagKind = iota + 1
	flagString
	flagInt
	flagDuration
	flagFloat
)

// FlagSet is a typed flag registry for a command.
type FlagSet struct {
	byLong  map[string]*flagDef
	byShort map[rune]*flagDef
}

type flagDef struct {
	name      string
	shorthand rune
	usage     string
	kind      flagKind
	changed   bool // set from argv, not just defaulted

	boolPtr     *bool
	stringPtr   *string
	intPtr      *int
	durationPtr *time.Duration
	floatPtr    *float64
}

func newFlagSet() *FlagSet {
	return &FlagSet{
		byLong:  map[string]*flagDef{},
		byShort: map[rune]*flagDef{},
	}
}

func (fs *FlagSet) Bool(name string, shorthand rune, def bool, usage string) *bool {
	if name == "" {
		panic("cli: flag name must be non-empty")
	}
	ptr := new(bool)
	*ptr = def
	fs.add(&flagDef{
		name:      name,
		shorthand: shorthand,
		usage:     usage,
		kind:      flagBool,
		boolPtr:   ptr,
	})
	return ptr
}

func (fs *FlagSet) String(name string, shorthand rune, def string, usage string) *string {
	if name == "" {
		panic("cli: flag name must be non-empty")
	}
	ptr := new(string)
	*ptr = def
	fs.add(&flagDef{
		name:      name,
		shorthand: shorthand,
		usage:     usage,
		kind:      flagString,
		stringPtr: ptr,
	})
	return ptr
}

func (fs *FlagSet) Int(name string, shorthand rune, def int, usage string) *int {
	if name == "" {
		panic("cli: flag name must be non-empty")
	}
	ptr := new(int)
	*ptr = def
	fs.add(&flagDef{
		name:      name,
		shorthand: shorthand,
		usage:     usage,
		kind:      flagInt,
		intPtr:    ptr,
	})
	return ptr
}

func (fs *FlagSet) Duration(name string, shorthand rune, def time.Duration, usage string) *time.Duration {
	if name == "" {
		panic("cli: flag name must be non-empty")
	}
	ptr := new(time.Duration)
	*ptr = def
	fs.add(&flagDef{
		name:        name,
		shorthand:   shorthand,
		usage:       usage,
		kind:        flagDuration,
		durationPtr: ptr,
	})
	return ptr
}

func (fs *FlagSet) Float(name string, shorthand rune, def float64, usage string) *float64 {
	if name == "" {
		panic("cli: flag name must be non-empty")
	}
	ptr := new(float64)
	*ptr = def
	fs.add(&flagDef{
		name:      name,
		shorthand: shorthand,
		usage:     usage,
		kind:      flagFloat,
		floatPtr:  ptr,
	})
	return ptr
}

// Changed reports whether the flag called name was given on the command line (as opposed to holding its default).
func (fs *FlagSet) Changed(name string) bool {
	def, ok := fs.byLong[name]
	return ok && def.changed
}

// Visit calls fn, in name order, for each flag given on the command line, with its parsed value (bool, string, int, time.Duration, or float64).
func (fs *FlagSet) Visit(fn func(name string, value any)) {
	names := make([]string, 0, len(fs.byLong))
	for name, def := range fs.byLong {
		if def.changed {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		fn(name, fs.byLong[name].value())
	}
}

func (def *flagDef) value() any {
	switch def.kind {
	case flagBool:
		return *def.boolPtr
	case flagString:
		return *def.stringPtr
	case flagInt:
		return *def.intPtr
	case flagDuration:
		return *def.durationPtr
	case flagFloat:
		return *def.floatPtr
	}
	return nil
}

func (fs *FlagSet) add(def *flagDef) {
	if _, ok := fs.byLong[def.name]; ok {
		panic("cli: duplicate flag: --" + def.name)
	}
	fs.byLong[def.name] = def
	if def.shorthand != 0 {
		if _, ok := fs.byShort[def.shorthand]; ok {
			panic(fmt.Sprintf("cli: duplicate shorthand flag: -%c", def.shorthand))
		}
		fs.byShort[def.shorthand] = def
	}
}

type activeFlags struct {
	byLong  map[string]*flagDef
	byShort map[rune]*flagDef
}

func (c *Command) activeFlags() activeFlags {
	byLong := map[string]*flagDef{}
	byShort := map[rune]*flagDef{}

	for _, cmd := range c.pathFromRoot() {
		if cmd.persistentFlags != nil {
			for _, def := range cmd.persistentFlags.byLong {
				addActiveFlag(byLong, byShort, def)
			}
		}
	}

	if c.localFlags != nil {
		for _, def := range c.localFlags.byLong {
			addActiveFlag(byLong, byShort, def)
		}
	}

	return activeFlags{byLong: byLong, byShort: byShort}
}

func addActiveFlag(byLong map[string]*flagDef, byShort map[rune]*flagDef, def *flagDef) {
	if existing, ok := byLong[def.name]; ok && existing != def {
		panic("cli: flag name conflict across command path: --" + def.name)
	}
	byLong[def.name] = def
	if def.shorthand != 0 {
		if existing, ok := byShort[def.shorthand]; ok && existing != def {
			panic(fmt.Sprintf("cli: shorthand conflict across command path: -%c", def.shorthand))
		}
		byShort[def.shorthand] = def
	}
}

type flagHelp struct {
	def  *flagDef
	kind string
}

func flagsForHelp(cmd *Command) []flagHelp {
	active := cmd.activeFlags()
	var helps []flagHelp
	for _, def := range active.byLong {
		kind := ""
		switch def.kind {
		case flagBool:
			kind = "bool"
		case flagString:
			kind = "string"
		case flagInt:
			kind = "int"
		case flagDuration:
			kind = "duration"
		case flagFloat:
			kind = "float"
		}
		helps = append(helps, flagHelp{def: def, kind: kind})
	}
	sort.Slice(helps, func(i, j int) bool { return helps[i].def.name < helps[j].def.name })
	return helps
}

func (a activeFlags) parseAndSet(token string, hasDashDash bool, name string, shorthand rune, value *string, nextValue *string) (bool, error) {
	var def *flagDef
	if name != "" {
		def = a.byLong[name]
	} else {
		def = a.byShort[shorthand]
	}
	if def == nil {
		return false, usageErrorf("unknown flag: %s", token)
	}

	consumeNext := false
	var raw string
	if value != nil {
		raw = *value
	} else {
		if def.kind == flagBool {
			if nextValue != nil {
				if _, err := strconv.ParseBool(*nextValue); err == nil {
					raw = *nextValue
					consumeNext = true
				} else {
					raw = "true"
				}
			} else {
				raw = "true"
			}
		} else {
			if nextValue == nil {
				if hasDashDash {
					return false, usageErrorf("flag needs a value before --: %s", token)
				}
				return false, usageErrorf("flag needs a value: %s", token)
			}
			raw = *nextValue
			consumeNext = true
		}
	}

	if err := setFlagValue(def, raw); err != nil {
		return false, usageErrorf("invalid value for %s: %v", displayFlag(def), err)
	}
	def.changed = true
	return consumeNext, nil
}

func setFlagValue(def *flagDef, raw string) error {
	switch def.kind {
	case flagBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		*def.boolPtr = v
		return nil
	case flagString:
		*def.stringPtr = raw
		return nil
	case flagInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		*def.intPtr = v
		return nil
	case flagDuration:
		v, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		*def.durationPtr = v
		return nil
	case flagFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		*def.floatPtr = v
		return nil
	default:
		return fmt.Errorf("unknown flag kind")
	}
}

func displayFlag(def *flagDef) string {
	if def.shorthand != 0 {
		return fmt.Sprintf("-%c/--%s", def.shorthand, def.name)
	}
	return "--" + def.name
}
