package view

import (
	"bytes"
	"html/template"
)

// PreviewPageData provides the dynamic fields for the preview page. The og:
// and twitter: tags are the whole point: unfurlers read them to build their
// cards without ever following the redirect.
type PreviewPageData struct {
	Code        string
	TargetURL   string
	ShortURL    string
	Title       string
	Description string
	Image       string
}

var previewPageTmpl = template.Must(template.New("preview_page").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>{{if .Title}}TinyLink – {{.Title}}{{else}}TinyLink – {{.Code}}{{end}}</title>
	<meta name="description" content="{{.Description}}" />
	<meta property="og:title" content="{{if .Title}}TinyLink – {{.Title}}{{else}}TinyLink – {{.Code}}{{end}}" />
	<meta property="og:description" content="{{.Description}}" />
	<meta property="og:url" content="{{.ShortURL}}" />
	{{if .Image}}<meta property="og:image" content="{{.Image}}" />{{end}}
	<meta name="twitter:card" content="{{if .Image}}summary_large_image{{else}}summary{{end}}" />
	<meta name="twitter:title" content="{{if .Title}}TinyLink – {{.Title}}{{else}}TinyLink – {{.Code}}{{end}}" />
	<meta name="twitter:description" content="{{.Description}}" />
	{{if .Image}}<meta name="twitter:image" content="{{.Image}}" />{{end}}
	<style>
		:root {
			--bg: #090a0f;
			--card: rgba(255, 255, 255, 0.05);
			--border: rgba(255, 255, 255, 0.15);
			--text: #e7ecff;
			--muted: #a1acc5;
			--accent: #7dd3fc;
			--accent-strong: #38bdf8;
			font-family: "Inter", -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
		}
		* { box-sizing: border-box; }
		body {
			margin: 0;
			min-height: 100vh;
			display: flex;
			align-items: center;
			justify-content: center;
			background: radial-gradient(circle at 20% 20%, #111827, #030712 60%);
			color: var(--text);
		}
		.card {
			background: var(--card);
			border: 1px solid var(--border);
			border-radius: 18px;
			padding: 32px;
			width: min(520px, 92vw);
			box-shadow: 0 45px 100px rgba(0,0,0,0.35);
			backdrop-filter: blur(18px);
		}
		h1 {
			font-size: 1.5rem;
			margin-bottom: 6px;
		}
		p {
			color: var(--muted);
			margin-top: 0;
		}
		img.preview {
			width: 100%;
			height: auto;
			border-radius: 14px;
			margin-bottom: 16px;
		}
		.destination {
			margin: 24px 0;
			padding: 18px;
			border-radius: 14px;
			background: rgba(125, 211, 252, 0.07);
			border: 1px solid rgba(125, 211, 252, 0.25);
			word-break: break-all;
		}
		.destination-label {
			font-size: 0.82rem;
			text-transform: uppercase;
			letter-spacing: 0.08em;
			color: var(--muted);
			margin-bottom: 8px;
		}
		a.button {
			display: inline-flex;
			align-items: center;
			justify-content: center;
			padding: 0 28px;
			height: 48px;
			border-radius: 999px;
			background: linear-gradient(120deg, var(--accent), var(--accent-strong));
			color: #050708;
			font-weight: 600;
			text-decoration: none;
			transition: transform 0.15s ease, opacity 0.15s ease;
		}
		a.button:hover {
			transform: translateY(-1px);
			opacity: 0.92;
		}
		.meta {
			margin-top: 16px;
			font-size: 0.85rem;
			color: rgba(231, 236, 255, 0.65);
		}
		code {
			background: rgba(255,255,255,0.08);
			padding: 2px 6px;
			border-radius: 6px;
		}
	</style>
</head>
<body>
	<div class="card">
		<h1>{{if .Title}}{{.Title}}{{else}}{{.Code}}{{end}}</h1>
		{{if .Image}}<img class="preview" src="{{.Image}}" alt="Preview" />{{end}}
		<p>{{.Description}}</p>

		<div class="destination">
			<div class="destination-label">Destination</div>
			<div>{{.TargetURL}}</div>
		</div>

		<p>This short link provides shareable preview metadata for social apps
		and chats. Click below to continue.</p>

		<a class="button" href="{{.TargetURL}}">Continue to destination</a>

		<div class="meta">Add <code>?preview=1</code> to force this page:
		<code>/{{.Code}}?preview=1</code></div>
	</div>
</body>
</html>
`))

// RenderPreviewPage expands the preview template with the provided data.
func RenderPreviewPage(data PreviewPageData) (string, error) {
	var buf bytes.Buffer
	if err := previewPageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
