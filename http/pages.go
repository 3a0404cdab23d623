package http

import (
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const indexHTML = `<!doctype html>
<html lang="ar" dir="rtl">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>رفع التقرير وتسجيل بصمته</title>
    <style>
        body { font-family: system-ui, -apple-system, Segoe UI, Roboto, Tahoma, Arial; margin: 2rem; }
        .card { max-width: 640px; margin: 0 auto; padding: 1.5rem; border: 1px solid #ddd; border-radius: 12px; }
        .row { margin-bottom: 1rem; }
        button { padding: 0.6rem 1rem; border-radius: 8px; border: 1px solid #999; cursor: pointer; }
        .link { margin-top: 1rem; word-break: break-all; }
    </style>
</head>
<body>
    <div class="card">
        <h2>رفع تقرير وتسجيل بصمته للتحقق</h2>
        <div class="row">
            <input id="file" type="file" />
        </div>
        <div class="row">
            <button id="uploadBtn">رفع وتسجيل</button>
        </div>
        <div id="result" class="link"></div>
    </div>
    <script>
    const btn = document.getElementById('uploadBtn');
    const fileInput = document.getElementById('file');
    const result = document.getElementById('result');
    btn.addEventListener('click', async () => {
        result.textContent = 'جارٍ الرفع...';
        const file = fileInput.files[0];
        if (!file) { result.textContent = 'الرجاء اختيار ملف'; return; }
        const formData = new FormData();
        formData.append('file', file);
        try {
            const res = await fetch('/upload', { method: 'POST', body: formData });
            if (!res.ok) { throw new Error('upload failed'); }
            const data = await res.json();
            result.innerHTML = 'تم التسجيل. بصمة الملف: <code>' + data.hash + '</code>';
        } catch (e) {
            result.textContent = 'حدث خطأ أثناء الرفع';
        }
    });
    </script>
</body>
</html>`

var verifyTmpl = template.Must(template.New("verify").Parse(`<!doctype html>
<html lang="ar" dir="rtl">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>التحقق من التقرير</title>
    <style>
        body { font-family: system-ui, -apple-system, Segoe UI, Roboto, Tahoma, Arial; margin: 2rem; }
        .card { max-width: 640px; margin: 0 auto; padding: 1.5rem; border: 1px solid #ddd; border-radius: 12px; }
        .ok { color: #1a7f37; }
        .bad { color: #b42318; }
        code { word-break: break-all; }
    </style>
</head>
<body>
    <div class="card">
    {{if not .Hash}}
        <h2 class="bad">لم يتم تقديم بصمة للتحقق</h2>
    {{else if .Found}}
        <h2 class="ok">التقرير كامل ✓</h2>
        <p>البصمة: <code>{{.Hash}}</code></p>
        <p>الملف: {{.FileName}}</p>
        {{if not .Created.IsZero}}<p>تاريخ التسجيل: {{.Created.Format "2006-01-02 15:04"}}</p>{{end}}
        {{if .FileURL}}<p><a href="/file?hash={{.Hash}}">تحميل الملف</a></p>{{end}}
    {{else}}
        <h2 class="bad">لم يتم العثور على تقرير بهذه البصمة ✗</h2>
        <p>البصمة: <code>{{.Hash}}</code></p>
    {{end}}
    </div>
</body>
</html>`))

type verifyPageData struct {
	Hash     string
	Found    bool
	FileName string
	FileURL  string
	Created  time.Time
}

func (h *Handler) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, indexHTML)
}

func writeVerifyPage(w http.ResponseWriter, data verifyPageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if !data.Found && data.Hash != "" {
		w.WriteHeader(http.StatusNotFound)
	}
	if err := verifyTmpl.Execute(w, data); err != nil {
		slog.Error("failed to render verify page", "error", err)
	}
}
