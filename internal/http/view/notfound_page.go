package view

import (
	"bytes"
	"html/template"
)

// NotFoundPageData provides the dynamic fields for the not-found page.
type NotFoundPageData struct {
	Code string
}

var notFoundPageTmpl = template.Must(template.New("notfound_page").Parse(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>Link Not Found</title>
	<style>
		:root {
			--bg: #090a0f;
			--card: rgba(255, 255, 255, 0.05);
			--border: rgba(255, 255, 255, 0.15);
			--text: #e7ecff;
			--muted: #a1acc5;
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
			width: min(480px, 92vw);
			box-shadow: 0 45px 100px rgba(0,0,0,0.35);
			backdrop-filter: blur(18px);
			text-align: center;
		}
		h1 {
			font-size: 1.5rem;
			margin-bottom: 6px;
		}
		p {
			color: var(--muted);
			margin-top: 0;
		}
		.code {
			display: inline-block;
			margin-top: 12px;
			padding: 6px 14px;
			border-radius: 999px;
			background: rgba(125, 211, 252, 0.07);
			border: 1px solid rgba(125, 211, 252, 0.25);
			font-family: ui-monospace, monospace;
			color: var(--text);
		}
	</style>
</head>
<body>
	<div class="card">
		<h1>Link Not Found</h1>
		<p>The link you are trying to access does not exist or has been removed.</p>
		{{if .Code}}<div class="code">/{{.Code}}</div>{{end}}
	</div>
</body>
</html>
`))

// RenderNotFoundPage expands the not-found template with the provided data.
func RenderNotFoundPage(data NotFoundPageData) (string, error) {
	var buf bytes.Buffer
	if err := notFoundPageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
