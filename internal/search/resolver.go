// Package search implements the WinGet manifestSearch matching
// algorithm: a primary query plus inclusion and filter entries, each
// mapped onto a catalog column and combined with OR. Inclusions and
// filters widen the result set per protocol semantics; they never
// narrow it.
package search

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"wingetdepot/internal/models"
)

// Match types understood by the resolver. Anything else is an error.
const (
	MatchExact           = "Exact"
	MatchPartial         = "Partial"
	MatchSubstring       = "Substring"
	MatchCaseInsensitive = "CaseInsensitive"
)

// ErrUnknownMatchType marks an unrecognized MatchType in the request.
// The boundary maps it to an empty 204 response, not a fault.
var ErrUnknownMatchType = errors.New("unknown match type")

type RequestMatch struct {
	KeyWord   string `json:"KeyWord"`
	MatchType string `json:"MatchType"`
}

type FieldFilter struct {
	PackageMatchField string       `json:"PackageMatchField"`
	RequestMatch      RequestMatch `json:"RequestMatch"`
}

type Request struct {
	MaximumResults int           `json:"MaximumResults"`
	Query          *RequestMatch `json:"Query"`
	Inclusions     []FieldFilter `json:"Inclusions"`
	Filters        []FieldFilter `json:"Filters"`
}

// fieldColumns maps protocol match fields onto catalog columns. Family
// name and product code are not tracked separately and fall back to the
// identifier.
var fieldColumns = map[string]string{
	"PackageName":       "name",
	"Moniker":           "name",
	"PackageIdentifier": "identifier",
	"PackageFamilyName": "identifier",
	"ProductCode":       "identifier",
}

type predicate struct {
	clause string
	args   []interface{}
}

// Resolve runs the search against the catalog and returns matching
// packages in catalog order, deduplicated, with the result cap applied
// last. Packages whose versions all lack installers are excluded even
// when they match textually. A request without any criteria returns
// nothing, never the whole catalog.
func Resolve(db *gorm.DB, req Request) ([]models.Package, error) {
	var preds []predicate

	if req.Query != nil && req.Query.KeyWord != "" {
		p, err := columnPredicate("name", *req.Query)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
		p, err = columnPredicate("identifier", *req.Query)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}

	for _, f := range append(append([]FieldFilter{}, req.Inclusions...), req.Filters...) {
		column, ok := fieldColumns[f.PackageMatchField]
		if !ok || f.RequestMatch.KeyWord == "" {
			// Unsupported fields are skipped, matching client tolerance.
			continue
		}
		p, err := columnPredicate(column, f.RequestMatch)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}

	if len(preds) == 0 {
		return nil, nil
	}

	cond := db.Where(preds[0].clause, preds[0].args...)
	for _, p := range preds[1:] {
		cond = cond.Or(p.clause, p.args...)
	}

	var pkgs []models.Package
	err := db.
		Preload("Versions.Installers").
		Where(cond).
		Order("id").
		Find(&pkgs).Error
	if err != nil {
		return nil, err
	}

	out := pkgs[:0]
	for i := range pkgs {
		if hasInstallers(&pkgs[i]) {
			out = append(out, pkgs[i])
		}
	}
	if req.MaximumResults > 0 && len(out) > req.MaximumResults {
		out = out[:req.MaximumResults]
	}
	return out, nil
}

func columnPredicate(column string, m RequestMatch) (predicate, error) {
	switch m.MatchType {
	case MatchExact:
		return predicate{clause: column + " = ?", args: []interface{}{m.KeyWord}}, nil
	case MatchPartial, MatchSubstring, MatchCaseInsensitive:
		like := "%" + strings.ToLower(m.KeyWord) + "%"
		return predicate{clause: "lower(" + column + ") LIKE ?", args: []interface{}{like}}, nil
	default:
		return predicate{}, ErrUnknownMatchType
	}
}

func hasInstallers(pkg *models.Package) bool {
	for i := range pkg.Versions {
		if len(pkg.Versions[i].Installers) > 0 {
			return true
		}
	}
	return false
}
