package trk

import "bytes"

//DecodeNames decodes up to n names from a name table of 20-byte slots.
//A name ends at its first NUL byte. If the byte after that NUL is a digit N,
//the name is repeated N times (old files store "colors\x003" for a 3-component color).
//Some writers store N itself instead of the digit, that is accepted too.
//Decoding stops at the first empty slot, or when n names were found, and the result is
//padded with empty names up to n.
func DecodeNames(table []byte, n int) []string {
	names := make([]string, 0, n)
	if n <= 0 {
		return names
	}
	for start := 0; start+NameSlotSize <= len(table) && len(names) < n; start += NameSlotSize {
		slot := table[start : start+NameSlotSize]
		if allZero(slot) {
			break
		}
		end := bytes.IndexByte(slot, 0)
		if end < 0 {
			//all 20 bytes are used by the name
			names = append(names, string(slot))
			continue
		}
		name := string(slot[:end])
		repeat := 1
		if end+1 < len(slot) {
			repeat = repeatCount(slot[end+1])
		}
		for i := 0; i < repeat; i++ {
			names = append(names, name)
		}
	}
	if len(names) > n {
		names = names[:n]
	}
	for len(names) < n {
		names = append(names, "")
	}
	return names
}

//EncodeNames builds a name table with one name per slot.
//Trailing empty names are left as empty slots, an empty name before a
//non-empty one is an error, as it would end the table.
func EncodeNames(names []string) ([NameTableSize]byte, error) {
	var table [NameTableSize]byte
	if len(names) > MaxNames {
		return table, newError(ErrCapacity, "", "EncodeNames", "%d names, the maximum is %d", len(names), MaxNames)
	}
	last := len(names) - 1
	for last >= 0 && names[last] == "" {
		last--
	}
	for i, name := range names[:last+1] {
		if err := checkName(name, 0); err != nil {
			return table, errDecorate(err, "EncodeNames")
		}
		copy(table[i*NameSlotSize:], name)
	}
	return table, nil
}

//checkName returns an error if name can't be added to a table that already has present names.
func checkName(name string, present int) error {
	if present >= MaxNames {
		return newError(ErrCapacity, "", "checkName", "there are already %d names", present)
	}
	if name == "" {
		return newError(ErrFormat, "", "checkName", "empty name")
	}
	if len(name) > NameSlotSize {
		return newError(ErrNameTooLong, "", "checkName", "%q has %d bytes, the maximum is %d", name, len(name), NameSlotSize)
	}
	for i := 0; i < len(name); i++ {
		if name[i] > 127 {
			return newError(ErrNonASCII, "", "checkName", "%q", name)
		}
	}
	return nil
}

//repeatCount returns how many times a name is repeated, given the byte after its NUL.
func repeatCount(b byte) int {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0')
	case b >= 1 && b <= 9:
		return int(b)
	default:
		return 1
	}
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
