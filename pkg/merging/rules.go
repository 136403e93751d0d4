package merging

import "github.com/Ramsey-B/myndigheter/pkg/models"

// fieldRule populates one record field from the values its JMESPath paths
// yield, in priority order.
type fieldRule struct {
	key   string
	paths []string
	apply func(rec *models.Agency, candidates []any)
}

// fieldRules is the source priority table for every derived record field.
// Paths are evaluated against a scope holding the entry's sub-records under
// esv, stkt, scb, sfs, agv and its wikidata entry under wd.
var fieldRules = []fieldRule{
	stringRule("en", func(a *models.Agency, v string) { a.EnglishName = v }, "esv.nameEn", "wd.nameEn"),
	stringRule("sh", func(a *models.Agency, v string) { a.ShortName = v }, "esv.shortName", "stkt.abbreviation", "scb.shortName"),
	stringRule("d", func(a *models.Agency, v string) { a.Department = v }, "esv.department", "stkt.department"),
	stringRule("org", func(a *models.Agency, v string) { a.OrgNr = v }, "esv.orgNr", "stkt.orgNr", "scb.orgNr", "wd.orgNr"),
	stringRule("s", func(a *models.Agency, v string) { a.Start = v }, "wd.start", "stkt.start", "sfs.start"),
	stringRule("e", func(a *models.Agency, v string) { a.End = v }, "wd.end", "stkt.end", "sfs.end"),

	numberRule("emp", func(a *models.Agency, v float64) { a.Employees = &v }, "esv.employees", "agv.total"),
	numberRule("fte", func(a *models.Agency, v float64) { a.FTE = &v }, "esv.fte"),
	numberRule("w", func(a *models.Agency, v float64) { a.Women = &v }, "agv.women", "scb.women"),
	numberRule("m", func(a *models.Agency, v float64) { a.Men = &v }, "agv.men", "scb.men"),

	historyRule("empH", func(a *models.Agency, v map[string]float64) { a.EmployeeHistory = v }, "agv.total"),
	historyRule("wH", func(a *models.Agency, v map[string]float64) { a.WomenHistory = v }, "agv.women"),
	historyRule("mH", func(a *models.Agency, v map[string]float64) { a.MenHistory = v }, "agv.men"),
	historyRule("fteH", func(a *models.Agency, v map[string]float64) { a.FTEHistory = v }, "esv.fte"),

	stringRule("str", func(a *models.Agency, v string) { a.Structure = v }, "stkt.structure"),
	scalarRule("cof", func(a *models.Agency, v any) { a.COFOG = v }, "stkt.cofog10"),
	boolRule("gd", func(a *models.Agency, v bool) { a.HasDirectorGeneral = &v }, "stkt.hasGd"),
	stringRule("host", func(a *models.Agency, v string) { a.HostAuthority = v }, "stkt.host"),
	stringRule("grp", func(a *models.Agency, v string) { a.CategoryGroup = v }, "scb.group"),

	stringRule("web", func(a *models.Agency, v string) { a.Website = v }, "scb.web", "agv.web"),
	stringRule("wp", func(a *models.Agency, v string) { a.Wikipedia = v }, "wd.wikipedia"),
	stringRule("wd", func(a *models.Agency, v string) { a.WikidataID = v }, "wd.wikidataId"),
	stringRule("mail", func(a *models.Agency, v string) { a.Email = v }, "scb.email", "esv.email"),
	stringRule("tel", func(a *models.Agency, v string) { a.Phone = v }, "scb.phone", "agv.phone"),

	stringRule("city", func(a *models.Agency, v string) { a.City = v }, "scb.address.city", "scb.postAddress.city"),
	addressRule("addr", func(a *models.Agency, v string) { a.OfficeAddress = v }, "scb.address"),
	addressRule("post", func(a *models.Agency, v string) { a.PostalAddress = v }, "scb.postAddress"),

	stringRule("sfs", func(a *models.Agency, v string) { a.Regulation = v }, "sfs.regulation", "stkt.regulation"),
	stringSliceRule("sfsA", func(a *models.Agency, v []string) { a.Regulations = v }, "sfs.regulations"),
	stringRule("amend", func(a *models.Agency, v string) { a.LatestAmendment = v }, "stkt.latestAmendment"),
}

func newRule[T any](key string, convert Converter[T], set func(*models.Agency, T), paths []string) fieldRule {
	return fieldRule{
		key:   key,
		paths: paths,
		apply: func(rec *models.Agency, candidates []any) {
			if v, ok := Resolve(convert, candidates...); ok {
				set(rec, v)
			}
		},
	}
}

func stringRule(key string, set func(*models.Agency, string), paths ...string) fieldRule {
	return newRule(key, AsString, set, paths)
}

func scalarRule(key string, set func(*models.Agency, any), paths ...string) fieldRule {
	return newRule(key, AsScalar, set, paths)
}

func boolRule(key string, set func(*models.Agency, bool), paths ...string) fieldRule {
	return newRule(key, AsBool, set, paths)
}

func stringSliceRule(key string, set func(*models.Agency, []string), paths ...string) fieldRule {
	return newRule(key, AsStringSlice, set, paths)
}

// numberRule resolves a current count; a history candidate contributes its
// latest year's value, a scalar candidate contributes itself.
func numberRule(key string, set func(*models.Agency, float64), paths ...string) fieldRule {
	return newRule(key, currentNumber, set, paths)
}

func historyRule(key string, set func(*models.Agency, map[string]float64), paths ...string) fieldRule {
	return newRule(key, func(v any) (map[string]float64, bool) {
		m, ok := AsObject(v)
		if !ok {
			return nil, false
		}
		h := FloatHistory(m)
		return h, h != nil
	}, set, paths)
}

func addressRule(key string, set func(*models.Agency, string), paths ...string) fieldRule {
	return newRule(key, func(v any) (string, bool) {
		m, ok := AsObject(v)
		if !ok {
			return "", false
		}
		return FormatAddress(m)
	}, set, paths)
}

func currentNumber(v any) (float64, bool) {
	if m, ok := v.(map[string]any); ok {
		return LatestFloat(m)
	}
	return AsFloat(v)
}

// rulePaths lists every path referenced by the rule table.
func rulePaths() []string {
	var paths []string
	for _, r := range fieldRules {
		paths = append(paths, r.paths...)
	}
	return paths
}
