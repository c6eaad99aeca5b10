// Package renderer renders the carousel preview page: one element per slide
// with id slide-preview-<index>, editable fields and the export controls.
package renderer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/fredcamaral/carousel/internal/domain/entities"
	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// Placement of the slide column on the preview page, in CSS pixels
const (
	PreviewLeft = 24
	PreviewTop  = 96
	PreviewGap  = 24
)

// TemplateRenderer implements ports.PreviewRenderer using Go templates
type TemplateRenderer struct {
	templates *template.Template
	width     int
	height    int
}

// NewTemplateRenderer creates a renderer for slides of the configured size
func NewTemplateRenderer(cfg entities.CaptureConfig) (*TemplateRenderer, error) {
	tmpl := template.New("preview").Funcs(template.FuncMap{
		"slideData": func(v slideView, logo template.URL) slideFrame {
			return slideFrame{slideView: v, Logo: logo}
		},
	})

	_, err := tmpl.Parse(previewTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing preview template: %w", err)
	}

	_, err = tmpl.New("slide").Parse(slideTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing slide template: %w", err)
	}

	w, h := cfg.GetSlideSize()
	return &TemplateRenderer{
		templates: tmpl,
		width:     w,
		height:    h,
	}, nil
}

type previewData struct {
	Topic     string
	Template  string
	Templates []entities.Template
	Style     template.CSS
	Logo      template.URL
	Slides    []slideView
	Width     int
	Height    int
	Left      int
	Top       int
	Gap       int
}

// RenderPreview renders the complete preview page
func (r *TemplateRenderer) RenderPreview(ctx context.Context, carousel entities.Carousel) ([]byte, error) {
	tpl := entities.ResolveTemplate(carousel.Template)

	data := previewData{
		Topic:     carousel.Topic,
		Template:  tpl.Name,
		Templates: entities.BuiltinTemplates(),
		Style:     templateCSS(tpl),
		Width:     r.width,
		Height:    r.height,
		Left:      PreviewLeft,
		Top:       PreviewTop,
		Gap:       PreviewGap,
	}
	if carousel.Logo != "" {
		data.Logo, _ = safeImageURL(carousel.Logo)
	}
	for i, slide := range carousel.Slides {
		data.Slides = append(data.Slides, newSlideView(slide, i, len(carousel.Slides)))
	}

	var buf bytes.Buffer
	if err := r.templates.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing preview template: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderSlide renders the surface of a single slide
func (r *TemplateRenderer) RenderSlide(ctx context.Context, carousel entities.Carousel, index int) ([]byte, error) {
	if index < 0 || index >= len(carousel.Slides) {
		return nil, fmt.Errorf("slide %d: %w", index+1, entities.ErrSlideNotFound)
	}

	data := slideFrame{slideView: newSlideView(carousel.Slides[index], index, len(carousel.Slides))}
	if carousel.Logo != "" {
		data.Logo, _ = safeImageURL(carousel.Logo)
	}

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, "slide", data); err != nil {
		return nil, fmt.Errorf("executing slide template: %w", err)
	}
	return buf.Bytes(), nil
}

// slideFrame is a slide plus the carousel-wide decorations drawn on it
type slideFrame struct {
	slideView
	Logo template.URL
}

var _ ports.PreviewRenderer = (*TemplateRenderer)(nil)

const slideTemplate = `<section class="slide" id="{{.SurfaceID}}" data-slide-id="{{.ID}}" data-index="{{.Index}}">
    {{if .Image}}<img class="slide-bg" src="{{.Image}}" alt="{{.Prompt}}" crossorigin="anonymous"><div class="slide-overlay"></div>{{end}}
    {{if .Logo}}<img class="slide-logo" src="{{.Logo}}" alt="Logo">{{end}}
    {{if gt .Total 1}}<div class="slide-counter">{{.Number}}/{{.Total}}</div>{{end}}
    <div class="slide-text">
        <h2 class="slide-title" contenteditable="true" data-field="title">{{.Title}}</h2>
        <div class="slide-accent"></div>
        {{range $i, $line := .Content}}<p class="slide-line" contenteditable="true" data-field="content" data-line="{{$i}}">{{$line}}</p>
        {{end}}
    </div>
</section>`

const previewTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{if .Topic}}{{.Topic}} - {{end}}Carousel</title>
    <style>
        body { margin: 0; font-family: "Go", -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; background: #edf2f7; }
        header { position: fixed; top: 0; left: 0; right: 0; height: 72px; display: flex; align-items: center; gap: 12px; padding: 0 24px; background: #1a202c; color: #fff; z-index: 50; }
        header h1 { font-size: 18px; margin: 0 auto 0 0; }
        .slides { position: absolute; top: {{.Top}}px; left: {{.Left}}px; display: flex; flex-direction: column; gap: {{.Gap}}px; {{.Style}} }
        .slide { position: relative; overflow: hidden; width: {{.Width}}px; height: {{.Height}}px; background: var(--slide-bg); color: var(--slide-text); }
        .slide-bg { position: absolute; inset: 0; width: 100%; height: 100%; object-fit: cover; }
        .slide-overlay { position: absolute; inset: 0; background: linear-gradient(to top, var(--slide-bg), transparent); opacity: var(--slide-overlay); }
        .slide-logo { position: absolute; top: 20px; right: 20px; width: 64px; height: 64px; object-fit: contain; z-index: 3; }
        .slide-counter { position: absolute; top: 20px; left: 20px; font-size: calc(14px * var(--font-scale)); font-weight: bold; color: var(--slide-accent); z-index: 3; }
        .slide-text { position: absolute; left: 32px; right: 32px; bottom: 32px; z-index: 2; }
        .slide-title { margin: 0 0 16px; font-size: calc(36px * var(--font-scale)); line-height: 1.25; text-align: var(--title-align); }
        .slide-accent { width: 48px; height: 4px; margin-bottom: 16px; background: var(--slide-accent); }
        .slide-line { margin: 0 0 8px; font-size: calc(18px * var(--font-scale)); line-height: 1.25; text-align: var(--body-align); }
        [contenteditable]:focus { outline: 2px dashed var(--slide-accent); }
        #toolbar { position: absolute; display: none; gap: 4px; padding: 4px; background: #2d3748; border-radius: 6px; z-index: 60; }
        #toolbar.open { display: flex; }
        #toolbar button { background: none; border: 0; color: #fff; cursor: pointer; padding: 4px 8px; }
        #toolbar button.active { background: #4a5568; border-radius: 4px; }
        #export-status { min-width: 120px; }
    </style>
</head>
<body>
    <header>
        <h1>{{if .Topic}}{{.Topic}}{{else}}Carousel{{end}}</h1>
        <select id="template">
            {{range .Templates}}<option value="{{.Name}}"{{if eq .Name $.Template}} selected{{end}}>{{.DisplayName}}</option>{{end}}
        </select>
        <button data-history="undo">Undo</button>
        <button data-history="redo">Redo</button>
        <button data-export="zip">Download ZIP</button>
        <button data-export="gif">Download GIF</button>
        <button data-export="pdf">Download PDF</button>
        <span id="export-status"></span>
    </header>

    <div id="toolbar" role="toolbar">
        <button data-command="bold"><b>B</b></button>
        <button data-command="italic"><i>I</i></button>
        <button data-command="underline"><u>U</u></button>
        <button data-command="strikeThrough"><s>S</s></button>
        <button data-command="justifyLeft">L</button>
        <button data-command="justifyCenter">C</button>
        <button data-command="justifyRight">R</button>
        <button data-command="justifyFull">J</button>
        <button data-command="shadow">Shadow</button>
        <button data-command="outline">Outline</button>
    </div>

    <main class="slides">
        {{range .Slides}}{{template "slide" (slideData . $.Logo)}}
        {{end}}
    </main>

    <script>
    (function () {
        const toolbar = document.getElementById('toolbar');
        const status = document.getElementById('export-status');
        let editing = null;

        function field(el) {
            const section = el.closest('.slide');
            return {
                slideId: section.dataset.slideId,
                field: { kind: el.dataset.field, index: Number(el.dataset.line || 0) },
            };
        }

        function offsets(el) {
            const sel = window.getSelection();
            if (!sel.rangeCount || !el.contains(sel.anchorNode)) return null;
            const measure = (node, offset) => {
                const range = document.createRange();
                range.selectNodeContents(el);
                range.setEnd(node, offset);
                return Array.from(range.toString()).length;
            };
            return { start: measure(sel.anchorNode, sel.anchorOffset), end: measure(sel.focusNode, sel.focusOffset) };
        }

        async function send(method, url, body) {
            const res = await fetch(url, {
                method,
                headers: { 'Content-Type': 'application/json' },
                body: body === undefined ? undefined : JSON.stringify(body),
            });
            const data = await res.json().catch(() => ({}));
            if (!res.ok) throw new Error(data.message || data.error || res.statusText);
            return data;
        }

        document.addEventListener('selectionchange', () => {
            const el = document.activeElement;
            if (!el || !el.isContentEditable) return;
            const sel = offsets(el);
            if (!sel || sel.start === sel.end) { toolbar.classList.remove('open'); return; }
            editing = { el, sel };
            const box = window.getSelection().getRangeAt(0).getBoundingClientRect();
            const above = box.top >= 50;
            toolbar.style.left = (box.left + box.width / 2 + window.scrollX - toolbar.offsetWidth / 2) + 'px';
            toolbar.style.top = (above ? box.top + window.scrollY - 45 : box.bottom + window.scrollY + 10) + 'px';
            toolbar.classList.add('open');
        });

        toolbar.addEventListener('mousedown', (e) => e.preventDefault());
        toolbar.addEventListener('click', async (e) => {
            const button = e.target.closest('button');
            if (!button || !editing) return;
            const req = Object.assign(field(editing.el), { selection: editing.sel, command: button.dataset.command });
            try {
                const res = await send('POST', '/api/editor/command', req);
                editing.el.innerHTML = res.html;
                toolbar.querySelectorAll('button').forEach((b) => b.classList.toggle('active', !!res.active[b.dataset.command]));
            } catch (err) {
                status.textContent = err.message;
            }
        });

        document.querySelectorAll('[contenteditable]').forEach((el) => {
            el.addEventListener('blur', () => {
                const f = field(el);
                send('PUT', '/api/slides/' + f.slideId + '/content', { field: f.field.kind, index: f.field.index, html: el.innerHTML })
                    .catch((err) => { status.textContent = err.message; });
                setTimeout(() => toolbar.classList.remove('open'), 200);
            });
        });

        document.getElementById('template').addEventListener('change', (e) => {
            send('PUT', '/api/carousel/template', { template: e.target.value }).then(() => location.reload());
        });

        document.querySelectorAll('[data-history]').forEach((b) => {
            b.addEventListener('click', () => send('POST', '/api/history/' + b.dataset.history).then(() => location.reload()));
        });

        document.querySelectorAll('[data-export]').forEach((b) => {
            b.addEventListener('click', async () => {
                try {
                    const job = await send('POST', '/api/export', { mode: b.dataset.export });
                    status.textContent = 'Exporting 0%';
                    status.dataset.job = job.id;
                } catch (err) {
                    status.textContent = err.message;
                }
            });
        });

        const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
        ws.onmessage = (msg) => {
            const event = JSON.parse(msg.data);
            const data = event.data || {};
            switch (event.type) {
            case 'export.progress':
                status.textContent = 'Exporting ' + Math.round(data.progress * 100) + '%';
                break;
            case 'export.done':
                status.textContent = 'Done';
                window.location = '/api/export/' + data.jobId + '/download';
                break;
            case 'export.failed':
                status.textContent = data.error;
                break;
            case 'carousel.updated':
                if (!document.activeElement || !document.activeElement.isContentEditable) location.reload();
                break;
            }
        };
    })();
    </script>
</body>
</html>`
