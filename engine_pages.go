package mojito

const pageNotFound = "notFound"

var staticPages = []string{"terms", "privacy", "about", pageNotFound, "error", "forbidden"}

// StaticPages lists the names StaticPage serves.
func StaticPages() []string {
	return append([]string(nil), staticPages...)
}

// StaticPage returns a localized informational page. Unknown names yield the
// not-found page together with ErrUnknownPage.
func (e *Engine) StaticPage(name, lang string) (Page, error) {
	if e == nil || e.catalog == nil {
		return Page{}, ErrEngineNotReady
	}

	var err error
	if !isStaticPage(name) {
		name = pageNotFound
		err = ErrUnknownPage
	}

	lang = e.catalog.Resolve(lang)
	return Page{
		Name:     name,
		Language: lang,
		Title:    e.catalog.Select("page."+name+".title", lang),
		Body:     e.catalog.Select("page."+name+".body", lang),
	}, err
}

func isStaticPage(name string) bool {
	for _, p := range staticPages {
		if p == name {
			return true
		}
	}
	return false
}
