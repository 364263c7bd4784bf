package stock

import "errors"

// Origin tells where a stock came from: an external public repository, an
// exchange with another lab, or bred in-house.
type Origin string

const (
	OriginRepository Origin = "repository"
	OriginInternal   Origin = "internal"
	OriginExternal   Origin = "external"
)

func NewOrigin(o string) (Origin, error) {
	origin := Origin(o)
	if !origin.IsValid() {
		return "", errors.New("invalid origin")
	}
	return origin, nil
}

func (o Origin) IsValid() bool {
	switch o {
	case OriginRepository, OriginInternal, OriginExternal:
		return true
	}
	return false
}

// Center identifies a public stock center. The canonical token set is
// shared with the import pipeline's alias tables.
type Center string

const (
	CenterBDSC     Center = "bdsc"
	CenterVDRC     Center = "vdrc"
	CenterKyoto    Center = "kyoto"
	CenterNIG      Center = "nig"
	CenterDGRC     Center = "dgrc"
	CenterFlyORF   Center = "flyorf"
	CenterTRiP     Center = "trip"
	CenterExelixis Center = "exelixis"
	CenterOther    Center = "other"
)

func NewCenter(c string) (Center, error) {
	center := Center(c)
	if !center.IsValid() {
		return "", errors.New("invalid stock center")
	}
	return center, nil
}

// ParseCenter maps a canonical token to the enum, falling back to Other for
// non-empty unrecognized values.
func ParseCenter(c string) Center {
	if c == "" {
		return ""
	}
	center := Center(c)
	if center.IsValid() {
		return center
	}
	return CenterOther
}

func (c Center) IsValid() bool {
	switch c {
	case CenterBDSC, CenterVDRC, CenterKyoto, CenterNIG,
		CenterDGRC, CenterFlyORF, CenterTRiP, CenterExelixis,
		CenterOther:
		return true
	}
	return false
}
