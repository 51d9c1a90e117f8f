package http

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"
)

var landingPage = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8" />
<meta name="viewport" content="width=device-width, initial-scale=1.0" />
<title>{{.AppName}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 0; background: linear-gradient(135deg,#2c3e50,#4a90e2); color: #fff; min-height: 100vh; display: flex; flex-direction: column; }
header { flex: 1; padding: 60px 20px; text-align: center; }
button { margin: 10px; padding: 12px 24px; font-size: 16px; border: none; border-radius: 4px; cursor: pointer; background: rgba(255,255,255,0.2); color: #fff; transition: background 0.3s; }
button:hover { background: rgba(255,255,255,0.4); }
input { width: 280px; padding: 10px; margin: 8px 0; border: 1px solid #ccc; border-radius: 4px; }
pre { text-align: left; margin: 20px auto; max-width: 640px; background: rgba(0,0,0,0.3); padding: 16px; border-radius: 6px; white-space: pre-wrap; }
footer { text-align: center; padding: 20px; font-size: 14px; opacity: 0.8; }
</style>
</head>
<body>
<header>
  <h1>{{.AppName}}</h1>
  <form onsubmit="return login(event)">
    <input type="email" name="email" placeholder="Email" required /><br />
    <input type="password" name="password" placeholder="Password" required /><br />
    <button type="submit">Login</button>
  </form>
  <button onclick="call('/api/v1/users/me')">Who am I</button>
  <button onclick="call('/api/v1/sessions')">My sessions</button>
  <button onclick="logout()">Logout</button>
  <pre id="out"></pre>
</header>
<footer><a href="/swagger/index.html" style="color:#fff">API documentation</a></footer>
<script>
const accessHeader = {{.AccessHeader}};
const refreshHeader = {{.RefreshHeader}};
function show(data) { document.getElementById('out').textContent = JSON.stringify(data, null, 2); }
async function login(event) {
  event.preventDefault();
  const form = new FormData(event.target);
  const response = await fetch('/api/v1/auth/login', {
    method: 'POST',
    headers: { 'Content-Type': 'application/json' },
    body: JSON.stringify(Object.fromEntries(form.entries()))
  });
  const data = await response.json();
  if (response.ok) {
    localStorage.setItem('access', data.access);
    localStorage.setItem('refresh', data.refresh);
  }
  show(data);
}
async function call(path, method) {
  const headers = {};
  if (localStorage.getItem('access')) {
    headers['Authorization'] = 'Bearer ' + localStorage.getItem('access');
    headers[refreshHeader] = localStorage.getItem('refresh') || '';
  }
  const response = await fetch(path, { method: method || 'GET', headers: headers });
  const renewed = response.headers.get(accessHeader);
  if (renewed) { localStorage.setItem('access', renewed); }
  show(await response.json());
  return response;
}
async function logout() {
  await call('/api/v1/auth/logout', 'POST');
  localStorage.removeItem('access');
  localStorage.removeItem('refresh');
}
</script>
</body>
</html>`))

type landingPageData struct {
	AppName       string
	AccessHeader  string
	RefreshHeader string
}

// RegisterPages serves a small console for trying the login flow by hand.
func RegisterPages(e *echo.Echo, appName, accessHeader, refreshHeader string) {
	if accessHeader == "" {
		accessHeader = DefaultAccessHeader
	}
	if refreshHeader == "" {
		refreshHeader = DefaultRefreshHeader
	}
	var buf bytes.Buffer
	data := landingPageData{AppName: appName, AccessHeader: accessHeader, RefreshHeader: refreshHeader}
	if err := landingPage.Execute(&buf, data); err != nil {
		panic(err)
	}
	page := buf.String()

	e.GET("/", func(c echo.Context) error {
		return c.HTML(http.StatusOK, page)
	})
}
