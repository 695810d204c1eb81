package snapshot

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCategory is returned when a categorical field receives a value
// outside its closed set.
var ErrUnknownCategory = errors.New("unknown category")

// Consciousness is the categorical level of consciousness. The zero value is
// Alert, so an omitted field is clinically neutral.
type Consciousness int

const (
	Alert Consciousness = iota
	Confused
	Unresponsive
)

var consciousnessNames = []string{"alert", "confused", "unresponsive"}

// AmbulatoryAid is the Morse ambulatory-aid category, ordered by fall risk.
type AmbulatoryAid int

const (
	AidNone AmbulatoryAid = iota
	AidCrutchesCaneWalker
	AidFurniture
)

var ambulatoryAidNames = []string{"none", "crutches-cane-walker", "furniture"}

// Gait is the Morse gait/transfer category.
type Gait int

const (
	GaitNormal Gait = iota
	GaitWeak
	GaitImpaired
)

var gaitNames = []string{"normal", "weak", "impaired"}

// MentalStatus is the Morse mental-status category.
type MentalStatus int

const (
	MentalOriented MentalStatus = iota
	MentalForgetful
)

var mentalStatusNames = []string{"oriented", "forgetful"}

// Acuity is the LACE admission acuity.
type Acuity int

const (
	AcuityElective Acuity = iota
	AcuityUrgent
	AcuityEmergent
)

var acuityNames = []string{"elective", "urgent", "emergent"}

// Sex is the biological sex used for guideline eligibility.
type Sex int

const (
	SexUnspecified Sex = iota
	SexMale
	SexFemale
)

var sexNames = []string{"", "male", "female"}

// AllergySeverity is the recorded reaction severity of an allergy.
type AllergySeverity int

const (
	SeverityUnspecified AllergySeverity = iota
	SeverityMild
	SeverityModerate
	SeveritySevere
)

var allergySeverityNames = []string{"", "mild", "moderate", "severe"}

// aliases accepted at the boundary in addition to the canonical names.
var (
	consciousnessAliases = map[string]Consciousness{
		"a": Alert, "drowsy": Confused, "new-confusion": Confused, "c": Confused,
		"v": Confused, "voice": Confused, "p": Unresponsive, "pain": Unresponsive,
		"u": Unresponsive,
	}
	ambulatoryAidAliases = map[string]AmbulatoryAid{
		"bedrest": AidNone, "nurse-assist": AidNone, "wheelchair": AidNone,
		"crutches": AidCrutchesCaneWalker, "cane": AidCrutchesCaneWalker, "walker": AidCrutchesCaneWalker,
	}
	gaitAliases = map[string]Gait{
		"bedrest": GaitNormal, "wheelchair": GaitNormal,
	}
	mentalStatusAliases = map[string]MentalStatus{
		"forgets-limitations": MentalForgetful, "overestimates": MentalForgetful,
		"overestimates-abilities": MentalForgetful,
	}
	sexAliases = map[string]Sex{"m": SexMale, "f": SexFemale, "unknown": SexUnspecified}
)

func parseClosed[T ~int](kind, s string, names []string, aliases map[string]T) (T, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if key == n {
			return T(i), nil
		}
	}
	if v, ok := aliases[key]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("%w: %s %q", ErrUnknownCategory, kind, s)
}

func nameOf[T ~int](v T, names []string) string {
	if int(v) < 0 || int(v) >= len(names) {
		return fmt.Sprintf("invalid(%d)", int(v))
	}
	return names[v]
}

func ParseConsciousness(s string) (Consciousness, error) {
	return parseClosed("consciousness", s, consciousnessNames, consciousnessAliases)
}

func ParseAmbulatoryAid(s string) (AmbulatoryAid, error) {
	return parseClosed("ambulatory aid", s, ambulatoryAidNames, ambulatoryAidAliases)
}

func ParseGait(s string) (Gait, error) {
	return parseClosed("gait", s, gaitNames, gaitAliases)
}

func ParseMentalStatus(s string) (MentalStatus, error) {
	return parseClosed("mental status", s, mentalStatusNames, mentalStatusAliases)
}

func ParseAcuity(s string) (Acuity, error) {
	return parseClosed[Acuity]("acuity", s, acuityNames, nil)
}

func ParseSex(s string) (Sex, error) {
	return parseClosed("sex", s, sexNames, sexAliases)
}

func ParseAllergySeverity(s string) (AllergySeverity, error) {
	return parseClosed[AllergySeverity]("allergy severity", s, allergySeverityNames, nil)
}

func (c Consciousness) String() string   { return nameOf(c, consciousnessNames) }
func (a AmbulatoryAid) String() string   { return nameOf(a, ambulatoryAidNames) }
func (g Gait) String() string            { return nameOf(g, gaitNames) }
func (m MentalStatus) String() string    { return nameOf(m, mentalStatusNames) }
func (a Acuity) String() string          { return nameOf(a, acuityNames) }
func (s Sex) String() string             { return nameOf(s, sexNames) }
func (s AllergySeverity) String() string { return nameOf(s, allergySeverityNames) }

func (c Consciousness) MarshalText() ([]byte, error)   { return []byte(c.String()), nil }
func (a AmbulatoryAid) MarshalText() ([]byte, error)   { return []byte(a.String()), nil }
func (g Gait) MarshalText() ([]byte, error)            { return []byte(g.String()), nil }
func (m MentalStatus) MarshalText() ([]byte, error)    { return []byte(m.String()), nil }
func (a Acuity) MarshalText() ([]byte, error)          { return []byte(a.String()), nil }
func (s Sex) MarshalText() ([]byte, error)             { return []byte(s.String()), nil }
func (s AllergySeverity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (c *Consciousness) UnmarshalText(b []byte) (err error) {
	*c, err = ParseConsciousness(string(b))
	return err
}

func (a *AmbulatoryAid) UnmarshalText(b []byte) (err error) {
	*a, err = ParseAmbulatoryAid(string(b))
	return err
}

func (g *Gait) UnmarshalText(b []byte) (err error) {
	*g, err = ParseGait(string(b))
	return err
}

func (m *MentalStatus) UnmarshalText(b []byte) (err error) {
	*m, err = ParseMentalStatus(string(b))
	return err
}

func (a *Acuity) UnmarshalText(b []byte) (err error) {
	*a, err = ParseAcuity(string(b))
	return err
}

func (s *Sex) UnmarshalText(b []byte) (err error) {
	*s, err = ParseSex(string(b))
	return err
}

func (s *AllergySeverity) UnmarshalText(b []byte) (err error) {
	*s, err = ParseAllergySeverity(string(b))
	return err
}
