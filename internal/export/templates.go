package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"portfolio/api/internal/store"
)

var funcMap = template.FuncMap{
	"deref": func(value *string) string {
		if value == nil {
			return ""
		}
		return *value
	},
	"join":  strings.Join,
	"stars": func(rating float64) string { return strings.Repeat("★", int(rating+0.5)) },
	"tech":  func(list store.StringList) []string { return []string(list) },
}

var portfolioTemplate = template.Must(template.New("portfolio").Funcs(funcMap).Parse(portfolioHTML))

// TemplateData holds data for portfolio template rendering
type TemplateData struct {
	Title       string
	GeneratedAt time.Time
	Sections    []store.SectionDocument
}

func RenderPortfolioHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := portfolioTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const portfolioHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Georgia, serif; line-height: 1.55; max-width: 820px; margin: 2rem auto; color: #222; }
    h1 { border-bottom: 2px solid #222; padding-bottom: 0.4rem; }
    h2 { margin-top: 2.2rem; border-bottom: 1px solid #ccc; }
    .item { margin: 1rem 0; page-break-inside: avoid; }
    .meta { color: #666; font-size: 0.9em; }
    .tags span { display: inline-block; border: 1px solid #aaa; border-radius: 3px; padding: 0 0.3rem; margin-right: 0.3rem; font-size: 0.8em; }
    img { max-width: 100%; }
    footer { margin-top: 3rem; color: #999; font-size: 0.8em; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  {{range .Sections}}
  <section id="{{.Slug}}">
    <h2>{{.Title}}</h2>
    {{range .TextBlocks}}<p>{{.Content}}</p>{{end}}
    {{range .ImageBlocks}}<figure><img src="{{.Src}}" alt="{{deref .Caption}}">{{with deref .Caption}}<figcaption>{{.}}</figcaption>{{end}}</figure>{{end}}
    {{range .ProjectItems}}
    <div class="item">
      <strong>{{.Title}}</strong>
      <p>{{.Description}}</p>
      {{with tech .Technologies}}<div class="tags">{{range .}}<span>{{.}}</span>{{end}}</div>{{end}}
      {{with deref .Link}}<div class="meta"><a href="{{.}}">{{.}}</a></div>{{end}}
      {{with deref .GithubURL}}<div class="meta"><a href="{{.}}">{{.}}</a></div>{{end}}
    </div>
    {{end}}
    {{range .SkillItems}}<div class="item"><strong>{{.Title}}</strong>{{if .Description}}: {{.Description}}{{end}}</div>{{end}}
    {{range .ExperienceItems}}
    <div class="item">
      <strong>{{.Title}}</strong>, {{.Company}}
      <div class="meta">{{.StartDate}}{{with deref .EndDate}} to {{.}}{{else}} to present{{end}}{{with deref .Location}} · {{.}}{{end}}</div>
      <p>{{.Description}}</p>
    </div>
    {{end}}
    {{range .EducationItems}}
    <div class="item">
      <strong>{{.School}}</strong>, {{.Degree}}{{with deref .Field}} in {{.}}{{end}}
      <div class="meta">{{.StartDate}}{{with deref .EndDate}} to {{.}}{{end}}</div>
      <p>{{.Description}}</p>
    </div>
    {{end}}
    {{range .TestimonialItems}}
    <blockquote class="item">
      <p>{{.Content}}</p>
      <div class="meta">{{.Name}}{{with deref .Role}}, {{.}}{{end}}{{with deref .Company}}, {{.}}{{end}} {{stars .Rating}}</div>
    </blockquote>
    {{end}}
    {{if .ContactInfoItems}}<ul>{{range .ContactInfoItems}}<li>{{with deref .Label}}{{.}}{{else}}{{.Type}}{{end}}: {{.Value}}</li>{{end}}</ul>{{end}}
    {{range .CustomBlocks}}{{if eq .Type "image"}}{{with deref .ImageSrc}}<img src="{{.}}" alt="">{{end}}{{else}}<p>{{deref .Content}}</p>{{end}}{{end}}
  </section>
  {{end}}
  <footer>Generated {{.GeneratedAt.Format "Jan 2, 2006"}}</footer>
</body>
</html>`
