package extract

import (
	"net/url"
	"strings"

	"github.com/apitrail/apitrail/internal/jsonval"
	"github.com/apitrail/apitrail/internal/model"
)

// Source identifies the page a document was fetched from. Candidates are
// emitted one level deeper than the source, with the source address as
// their parent and as the base for resolving relative hrefs.
type Source struct {
	// URL is the absolute address of the fetched page.
	URL string

	// Depth is the BFS depth of the fetched page.
	Depth int
}

// Anomaly records a link-shaped value that could not become a candidate,
// typically an href that does not resolve to an absolute address. The
// surrounding document is still processed in full.
type Anomaly struct {
	// Href is the offending raw href value.
	Href string

	// Reason describes why the candidate was skipped.
	Reason string
}

// Engine extracts candidate endpoints from decoded JSON documents.
// It carries no state between documents; a single Engine is shared by all
// crawl workers.
type Engine struct{}

// New returns a ready Engine.
func New() *Engine {
	return &Engine{}
}

// Extract runs all strategies over doc and returns the concatenated
// candidates in document order, plus any anomalies encountered.
//
// Each JSON node feeds at most one strategy before its children are
// visited: the _links and links containers claimed by the HAL and JSON:API
// strategies are never re-walked by the recursive descent, and an object
// consumed as a generic link object is not also scanned for URL-bearing
// string properties.
func (e *Engine) Extract(doc jsonval.Value, src Source) ([]model.Endpoint, []Anomaly) {
	w := &walker{src: src}

	switch doc.Kind() {
	case jsonval.KindObject:
		w.walkRoot(doc)
	case jsonval.KindArray:
		for _, item := range doc.Items() {
			if item.Kind() == jsonval.KindObject {
				w.walkRoot(item)
			}
		}
	}
	return w.endpoints, w.anomalies
}

// walker accumulates extraction output for one document.
type walker struct {
	src       Source
	endpoints []model.Endpoint
	anomalies []Anomaly
}

// walkRoot applies the top-level strategies to one root object, then
// descends into whatever they did not claim.
func (w *walker) walkRoot(obj jsonval.Value) {
	claimed := make(map[string]bool, 2)

	if links, ok := obj.Get("_links"); ok && links.Kind() == jsonval.KindObject {
		w.extractHAL(links)
		claimed["_links"] = true
	}

	if links, ok := obj.Get("links"); ok {
		switch links.Kind() {
		case jsonval.KindObject:
			w.extractLinksBlock(links)
			claimed["links"] = true
		case jsonval.KindArray:
			for _, item := range links.Items() {
				if item.Kind() == jsonval.KindObject {
					w.emitLinkObject(item, "")
				}
			}
			claimed["links"] = true
		}
	}

	w.walkObject(obj, claimed)
}

// extractHAL handles a HAL _links object: one candidate per href, with the
// member key as the relation. Entries keyed "self" are skipped outright;
// the self link is re-derived once, at the root, when the tree output is
// built, so emitting it here would only create duplicates.
func (w *walker) extractHAL(links jsonval.Value) {
	for _, m := range links.Members() {
		if m.Key == "self" {
			continue
		}
		w.extractLinkValue(m.Key, m.Value)
	}
}

// extractLinksBlock handles a JSON:API style links object whose values are
// bare address strings or href-bearing objects.
func (w *walker) extractLinksBlock(links jsonval.Value) {
	for _, m := range links.Members() {
		w.extractLinkValue(m.Key, m.Value)
	}
}

// extractLinkValue emits candidates for one named link value, which may be
// a bare string, a link object, or an array of either.
func (w *walker) extractLinkValue(rel string, v jsonval.Value) {
	switch v.Kind() {
	case jsonval.KindString:
		w.emitBare(v.Str(), rel)
	case jsonval.KindObject:
		w.emitLinkObject(v, rel)
	case jsonval.KindArray:
		for _, item := range v.Items() {
			w.extractLinkValue(rel, item)
		}
	}
}

// walkObject is the recursive descent. The object itself is claimed by the
// generic strategy when it is link-shaped; otherwise its string members are
// scanned for URL-bearing properties. Child containers are always visited,
// except those in claimed (the top-level _links/links blocks).
func (w *walker) walkObject(obj jsonval.Value, claimed map[string]bool) {
	if isLinkShaped(obj) {
		w.emitLinkObject(obj, "")
	} else {
		w.scanURLProperties(obj)
	}

	for _, m := range obj.Members() {
		if claimed[m.Key] {
			continue
		}
		w.walkContainer(m.Value)
	}
}

// walkContainer descends into nested objects and arrays.
func (w *walker) walkContainer(v jsonval.Value) {
	switch v.Kind() {
	case jsonval.KindObject:
		w.walkObject(v, nil)
	case jsonval.KindArray:
		for _, item := range v.Items() {
			w.walkContainer(item)
		}
	}
}

// scanURLProperties emits candidates for string members whose key suggests
// an address (contains "url" or "uri", or ends in "_link") and whose value
// parses as one. The key becomes the inferred relation.
func (w *walker) scanURLProperties(obj jsonval.Value) {
	for _, m := range obj.Members() {
		if m.Value.Kind() != jsonval.KindString {
			continue
		}
		if !isURLKey(m.Key) || !looksLikeURL(m.Value.Str()) {
			continue
		}
		w.emitBare(m.Value.Str(), m.Key)
	}
}

// emitBare emits a candidate from a bare address string.
func (w *walker) emitBare(href, rel string) {
	resolved, ok := w.resolve(href)
	if !ok {
		return
	}
	w.endpoints = append(w.endpoints, model.Endpoint{
		URL:       resolved,
		Rel:       rel,
		Depth:     w.src.Depth + 1,
		ParentURL: w.src.URL,
	})
}

// emitLinkObject emits a candidate from an href-bearing object.
// Known fields populate the record directly; every other member is copied
// into metadata verbatim. relOverride, when non-empty, wins over a declared
// rel member (the link's position in a _links/links block is authoritative).
func (w *walker) emitLinkObject(obj jsonval.Value, relOverride string) {
	href, ok := obj.StringField(model.FieldHref)
	if !ok {
		href, ok = obj.StringField("url")
		if !ok {
			return
		}
	}

	resolved, ok := w.resolve(href)
	if !ok {
		return
	}

	ep := model.Endpoint{
		URL:       resolved,
		Rel:       relOverride,
		Depth:     w.src.Depth + 1,
		ParentURL: w.src.URL,
	}
	if ep.Rel == "" {
		ep.Rel, _ = obj.StringField(model.FieldRel)
	}
	ep.Method, _ = obj.StringField(model.FieldMethod)
	ep.ContentType, _ = obj.StringField(model.FieldType)
	ep.Title, _ = obj.StringField(model.FieldTitle)

	for _, m := range obj.Members() {
		if model.IsKnownField(m.Key) || m.Key == "url" {
			continue
		}
		if ep.Metadata == nil {
			ep.Metadata = make(map[string]any)
		}
		ep.Metadata[m.Key] = m.Value.Interface()
	}

	w.endpoints = append(w.endpoints, ep)
}

// resolve turns href into a normalized absolute address using the source
// page as base. Failures are recorded as anomalies and skip only the one
// candidate.
func (w *walker) resolve(href string) (string, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		w.anomalies = append(w.anomalies, Anomaly{Href: href, Reason: err.Error()})
		return "", false
	}

	base, err := url.Parse(w.src.URL)
	if err != nil {
		w.anomalies = append(w.anomalies, Anomaly{Href: href, Reason: "unparseable source address"})
		return "", false
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		w.anomalies = append(w.anomalies, Anomaly{Href: href, Reason: "not an http(s) address"})
		return "", false
	}
	if resolved.Host == "" {
		w.anomalies = append(w.anomalies, Anomaly{Href: href, Reason: "no host after resolution"})
		return "", false
	}

	// Fragments never change the fetched resource.
	resolved.Fragment = ""
	return resolved.String(), true
}

// isLinkShaped reports whether an object carries a string href or url
// member, making it a generic link object.
func isLinkShaped(obj jsonval.Value) bool {
	if _, ok := obj.StringField(model.FieldHref); ok {
		return true
	}
	_, ok := obj.StringField("url")
	return ok
}

// isURLKey reports whether a member key names an address-bearing property.
func isURLKey(key string) bool {
	lower := strings.ToLower(key)
	return strings.Contains(lower, "url") ||
		strings.Contains(lower, "uri") ||
		strings.HasSuffix(lower, "_link")
}

// looksLikeURL is a cheap pre-filter for string values: absolute http(s)
// addresses and absolute paths qualify, arbitrary words do not.
func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "/")
}
