package domain

import "sort"

// Flag is a quality classifier tag.
type Flag string

const (
	FlagMissingContact   Flag = "missing_contact"
	FlagTestData         Flag = "test_data"
	FlagPlaceholderEmail Flag = "placeholder_email"
	FlagShortPhone       Flag = "short_phone"
	FlagMissingName      Flag = "missing_name"
	FlagDuplicatePhone   Flag = "duplicate_phone"
)

// HardFailFlags are the flags that exclude a lead from allocation and make
// it eligible for cleanup regardless of configuration.
func HardFailFlags() []Flag {
	return []Flag{FlagMissingContact, FlagTestData}
}

// Flags is a set of quality flags. The zero value is an empty set.
type Flags map[Flag]struct{}

// NewFlags builds a set from the given flags.
func NewFlags(flags ...Flag) Flags {
	set := make(Flags, len(flags))
	for _, f := range flags {
		set[f] = struct{}{}
	}
	return set
}

// Add inserts f, allocating the set if needed, and returns it.
func (s Flags) Add(f Flag) Flags {
	if s == nil {
		s = make(Flags, 1)
	}
	s[f] = struct{}{}
	return s
}

// Has reports whether f is in the set.
func (s Flags) Has(f Flag) bool {
	_, ok := s[f]
	return ok
}

// HasAny reports whether any of flags is in the set.
func (s Flags) HasAny(flags ...Flag) bool {
	for _, f := range flags {
		if s.Has(f) {
			return true
		}
	}
	return false
}

// HasHardFail reports whether the set carries a hard-fail flag.
func (s Flags) HasHardFail() bool {
	return s.HasAny(HardFailFlags()...)
}

// Union returns a new set with the members of both sets.
func (s Flags) Union(other Flags) Flags {
	out := make(Flags, len(s)+len(other))
	for f := range s {
		out[f] = struct{}{}
	}
	for f := range other {
		out[f] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold the same flags.
func (s Flags) Equal(other Flags) bool {
	if len(s) != len(other) {
		return false
	}
	for f := range s {
		if !other.Has(f) {
			return false
		}
	}
	return true
}

// Sorted returns the flags in lexical order.
func (s Flags) Sorted() []Flag {
	out := make([]Flag, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings returns the sorted flags as strings, for storage.
func (s Flags) Strings() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, f := range sorted {
		out[i] = string(f)
	}
	return out
}

// FlagsFromStrings parses stored flag names.
func FlagsFromStrings(values []string) Flags {
	set := make(Flags, len(values))
	for _, v := range values {
		if v != "" {
			set[Flag(v)] = struct{}{}
		}
	}
	return set
}
