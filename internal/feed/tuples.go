package feed

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/vanshika/gradefeed/internal/domain"
)

// decodePerson decodes a [name, surname, mail] triple. The mail must carry an @.
func decodePerson(raw json.RawMessage) (domain.Person, error) {
	elems, err := tuple(raw, 3)
	if err != nil {
		return domain.Person{}, err
	}
	parts, err := tupleStrings(elems)
	if err != nil {
		return domain.Person{}, err
	}
	if !strings.Contains(parts[2], "@") {
		return domain.Person{}, &DecodeError{
			Kind:     KindDomain,
			Path:     Path{}.Index(2),
			Expected: "mail address containing @",
			Got:      strconv.Quote(parts[2]),
		}
	}
	return domain.Person{Name: parts[0], Surname: parts[1], Mail: parts[2]}, nil
}

// decodeAbsence decodes a [start, end, comment] triple. Dates stay opaque.
func decodeAbsence(raw json.RawMessage) (domain.JustifiedAbsence, error) {
	elems, err := tuple(raw, 3)
	if err != nil {
		return domain.JustifiedAbsence{}, err
	}
	parts, err := tupleStrings(elems)
	if err != nil {
		return domain.JustifiedAbsence{}, err
	}
	return domain.JustifiedAbsence{Start: parts[0], End: parts[1], Comment: parts[2]}, nil
}

func decodePeople(raw json.RawMessage) ([]domain.Person, error) {
	return listOf(raw, decodePerson)
}

func decodeAbsences(raw json.RawMessage) ([]domain.JustifiedAbsence, error) {
	return listOf(raw, decodeAbsence)
}

func tupleStrings(elems []json.RawMessage) ([]string, error) {
	out := make([]string, len(elems))
	for i, e := range elems {
		s, err := String(e)
		if err != nil {
			return nil, prefix(Path{}.Index(i), err)
		}
		out[i] = s
	}
	return out, nil
}

// decodeMemberOf decodes [[dn...], [[label, value]...]].
func decodeMemberOf(raw json.RawMessage) (domain.MemberOf, error) {
	elems, err := tuple(raw, 2)
	if err != nil {
		return domain.MemberOf{}, err
	}
	groups, err := listOf(elems[0], decodeGroup)
	if err != nil {
		return domain.MemberOf{}, prefix(Path{}.Index(0), err)
	}
	others, err := listOf(elems[1], decodeOtherGroup)
	if err != nil {
		return domain.MemberOf{}, prefix(Path{}.Index(1), err)
	}
	return domain.MemberOf{Groups: groups, Others: others}, nil
}

// decodeGroup reduces an LDAP distinguished name to its first CN and OU.
func decodeGroup(raw json.RawMessage) (domain.Group, error) {
	dn, err := String(raw)
	if err != nil {
		return domain.Group{}, err
	}
	g := domain.Group{DN: dn}
	for _, rdn := range strings.Split(dn, ",") {
		attr, value, ok := strings.Cut(strings.TrimSpace(rdn), "=")
		if !ok {
			continue
		}
		switch strings.ToUpper(strings.TrimSpace(attr)) {
		case "CN":
			if g.CN == "" {
				g.CN = value
			}
		case "OU":
			if g.OU == "" {
				g.OU = value
			}
		}
	}
	if g.CN == "" {
		return domain.Group{}, &DecodeError{
			Kind:     KindDomain,
			Expected: "distinguished name with a CN component",
			Got:      strconv.Quote(dn),
		}
	}
	return g, nil
}

func decodeOtherGroup(raw json.RawMessage) (domain.OtherGroup, error) {
	elems, err := tuple(raw, 2)
	if err != nil {
		return domain.OtherGroup{}, err
	}
	label, err := String(elems[0])
	if err != nil {
		return domain.OtherGroup{}, prefix(Path{}.Index(0), err)
	}
	value, _ := Passthrough(elems[1])
	return domain.OtherGroup{Label: label, Value: value}, nil
}
