package v1

import (
	"net/http"
	"slices"

	"github.com/vulntor/stackscan/pkg/server/api"
	"github.com/vulntor/stackscan/pkg/techdetect"
)

// TechnologyInfo describes one catalog entry.
type TechnologyInfo struct {
	Name        string   `json:"name"`
	Categories  []int    `json:"categories"`
	Website     string   `json:"website,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	Description string   `json:"description,omitempty"`
	Signals     []string `json:"signals"`
}

// CatalogHandler handles GET /api/v1/catalog and reports the served catalog.
func CatalogHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, http.StatusOK, api.NewCatalogStats(currentCatalog(deps)))
	}
}

// TechnologiesHandler handles GET /api/v1/catalog/technologies and lists
// technology names in evaluation order.
func TechnologiesHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names := currentCatalog(deps).Names()
		if names == nil {
			names = []string{}
		}
		api.WriteJSON(w, http.StatusOK, names)
	}
}

// TechnologyHandler handles GET /api/v1/catalog/technologies/{name}.
func TechnologyHandler(deps *api.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		sig, ok := currentCatalog(deps).Signature(name)
		if !ok {
			api.WriteJSONError(w, http.StatusNotFound, "Not Found", "technology "+name+" is not in the catalog")
			return
		}
		api.WriteJSON(w, http.StatusOK, NewTechnologyInfo(sig))
	}
}

func currentCatalog(deps *api.Deps) *techdetect.CompiledCatalog {
	if deps.Detector == nil {
		return nil
	}
	return deps.Detector.Catalog()
}

// NewTechnologyInfo summarizes a compiled signature and the signals it uses.
func NewTechnologyInfo(sig *techdetect.CompiledSignature) TechnologyInfo {
	info := TechnologyInfo{
		Name:        sig.Name,
		Categories:  slices.Clone(sig.Categories),
		Website:     sig.Website,
		Icon:        sig.Icon,
		Description: sig.Description,
		Signals:     []string{},
	}
	if info.Categories == nil {
		info.Categories = []int{}
	}
	for _, kind := range []techdetect.Kind{
		techdetect.KindHTML, techdetect.KindText, techdetect.KindScript,
		techdetect.KindCSS, techdetect.KindScripts, techdetect.KindURL,
	} {
		if len(sig.Patterns[kind]) > 0 {
			info.Signals = append(info.Signals, string(kind))
		}
	}
	if len(sig.Meta) > 0 {
		info.Signals = append(info.Signals, string(techdetect.KindMeta))
	}
	if len(sig.Headers) > 0 {
		info.Signals = append(info.Signals, string(techdetect.KindHeaders))
	}
	return info
}
