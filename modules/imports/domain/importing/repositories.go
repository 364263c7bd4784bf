package importing

import "strings"

// repositoryAliases maps canonical repository tokens to the free-text names
// they are recognized from.
var repositoryAliases = map[string][]string{
	"bdsc": {
		"bdsc", "bloomington", "bl", "indiana", "bloomington drosophila",
		"bloomington drosophila stock center", "bloomington stock center",
		"bdsc#", "bl#",
	},
	"vdrc": {
		"vdrc", "vienna", "vienna drosophila", "vienna drosophila resource center",
		"vienna drc",
	},
	"kyoto": {
		"kyoto", "dgrc-kyoto", "kyoto dgrc", "kyoto stock center",
		"drosophila genetic resource center kyoto",
	},
	"nig": {
		"nig", "nig-fly", "national institute of genetics", "nig fly",
	},
	"dgrc": {
		"dgrc", "indiana dgrc", "drosophila genomics",
		"drosophila genomics resource center",
	},
	"flyorf": {
		"flyorf", "zurich", "orf", "fly orf", "zurich orf", "flyorf zurich",
	},
	"trip": {
		"trip", "harvard rnai", "transgenic rnai", "transgenic rnai project",
		"trc", "trip harvard",
	},
	"exelixis": {
		"exelixis", "harvard exelixis", "exelixis collection",
	},
}

// canonicalRepositoryOrder keeps alias resolution deterministic.
var canonicalRepositoryOrder = []string{
	"bdsc", "vdrc", "kyoto", "nig", "dgrc", "flyorf", "trip", "exelixis",
}

// NormalizeRepository canonicalizes a free-text repository name
// ("Bloomington" -> "bdsc"). Unrecognized non-empty input passes through
// lower-cased rather than being rejected.
func NormalizeRepository(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	if lowered == "" {
		return ""
	}

	cleaned := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(lowered, "#", ""), "stock center", ""))

	for _, canonical := range canonicalRepositoryOrder {
		for _, alias := range repositoryAliases[canonical] {
			if lowered == alias || cleaned == alias {
				return canonical
			}
		}
	}

	// Partial match at either end catches things like "bloomington dros.".
	for _, canonical := range canonicalRepositoryOrder {
		for _, alias := range repositoryAliases[canonical] {
			if strings.HasPrefix(lowered, alias) || strings.HasPrefix(alias, lowered) {
				return canonical
			}
		}
	}

	return lowered
}

// IsKnownRepository reports whether the value resolves to a canonical token.
func IsKnownRepository(value string) bool {
	_, ok := repositoryAliases[NormalizeRepository(value)]
	return ok
}

// RepositoryHintFromColumn infers a repository from the name of the column
// that supplied a repository stock id ("BDSC#" -> "bdsc"). Returns "" when
// the column name carries no hint.
func RepositoryHintFromColumn(column string) string {
	lowered := strings.ToLower(strings.TrimSpace(column))
	switch {
	case strings.Contains(lowered, "bdsc") || strings.HasPrefix(lowered, "bl"):
		return "bdsc"
	case strings.Contains(lowered, "vdrc"):
		return "vdrc"
	case strings.Contains(lowered, "kyoto"):
		return "kyoto"
	case strings.Contains(lowered, "nig"):
		return "nig"
	}
	return ""
}
