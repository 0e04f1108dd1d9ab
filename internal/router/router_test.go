package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/xuri/excelize/v2"

	"vet-lab-report/internal/llm"
	"vet-lab-report/internal/router"
)

// fakeProvider responde con HTML envuelto en fences, como hacen los modelos
// aunque se les pida que no.
type fakeProvider struct {
	mu      sync.Mutex
	err     error
	prompts []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Text: "```html\n<!DOCTYPE html><h1>🏥 보고서</h1>\n```", Model: "fake-1"}, nil
}

func (f *fakeProvider) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func newServer(t *testing.T, p llm.Provider) *httptest.Server {
	t.Helper()
	app, err := router.NewRouter(router.Options{Provider: p})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	ts := httptest.NewServer(app.Handler)
	t.Cleanup(ts.Close)
	return ts
}

type sessionResp struct {
	ID      string `json:"id"`
	Patient struct {
		Species string `json:"species"`
		Breed   string `json:"breed"`
		Name    string `json:"name"`
	} `json:"patient"`
	FileName      string `json:"file_name"`
	FileBytes     int    `json:"file_bytes"`
	UploadError   string `json:"upload_error"`
	Result        string `json:"result"`
	Fallback      bool   `json:"fallback"`
	AnalysisError string `json:"analysis_error"`
	InFlight      bool   `json:"in_flight"`
}

func TestHTTP_HealthMetricsSwagger(t *testing.T) {
	ts := newServer(t, &fakeProvider{})

	for _, path := range []string{"/health", "/metrics", "/swagger/doc.json"} {
		st, body := doReq(t, ts.URL, "GET", path, "", nil)
		if st != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d body=%s", path, st, string(body))
		}
	}

	st, body := doReq(t, ts.URL, "GET", "/swagger/doc.json", "", nil)
	if st != http.StatusOK || !strings.Contains(string(body), "/api/sessions/{sessionID}/analyze") {
		t.Fatalf("swagger doc missing analyze path: %s", string(body))
	}
}

func TestHTTP_EndToEnd_SessionFlow(t *testing.T) {
	fp := &fakeProvider{}
	ts := newServer(t, fp)

	// 1) Crear sesión: ficha por defecto
	st, body := doReq(t, ts.URL, "POST", "/api/sessions", "", nil)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 creating session, got %d body=%s", st, string(body))
	}
	var s sessionResp
	mustJSON(t, body, &s)
	if s.Patient.Species != "DOG" || s.Patient.Breed != "말티즈" {
		t.Fatalf("unexpected default patient %+v", s.Patient)
	}

	// 2) Razas de gato
	{
		st, body := doReq(t, ts.URL, "GET", "/api/breeds?species=CAT", "", nil)
		if st != http.StatusOK || !strings.Contains(string(body), "코리안 숏헤어") {
			t.Fatalf("expected cat breeds, got %d body=%s", st, string(body))
		}
	}

	// 3) Cambiar especie: la raza vuelve a la primera de gatos
	{
		st, body := doReq(t, ts.URL, "PUT", "/api/sessions/"+s.ID+"/patient", "", map[string]any{
			"species": "CAT",
			"breed":   "말티즈",
			"name":    "나비",
			"sex":     "female",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 updating patient, got %d body=%s", st, string(body))
		}
		var got sessionResp
		mustJSON(t, body, &got)
		if got.Patient.Breed != "코리안 숏헤어" || got.Patient.Name != "나비" {
			t.Fatalf("unexpected patient after species change %+v", got.Patient)
		}
	}

	// 4) Sexo inválido => 400
	{
		st, _ := doReq(t, ts.URL, "PUT", "/api/sessions/"+s.ID+"/patient", "", map[string]any{
			"species": "CAT",
			"breed":   "코리안 숏헤어",
			"sex":     "other",
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 for invalid sex, got %d", st)
		}
	}

	// 5) Subir planilla
	{
		st, body := upload(t, ts.URL+"/api/sessions/"+s.ID+"/upload", "cbc.xlsx", twoSheetWorkbook(t), nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 upload, got %d body=%s", st, string(body))
		}
		var got sessionResp
		mustJSON(t, body, &got)
		if got.FileName != "cbc.xlsx" || got.FileBytes == 0 || got.UploadError != "" {
			t.Fatalf("unexpected upload state %+v", got)
		}
	}

	// 6) Analizar
	{
		st, body := doReq(t, ts.URL, "POST", "/api/sessions/"+s.ID+"/analyze", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 analyze, got %d body=%s", st, string(body))
		}
		var got sessionResp
		mustJSON(t, body, &got)
		if got.Result != "<!DOCTYPE html><h1>🏥 보고서</h1>" || got.Fallback || got.InFlight {
			t.Fatalf("unexpected analysis state %+v", got)
		}

		p := fp.lastPrompt()
		for _, want := range []string{"- 종: 고양이", "- 이름: 나비", "--- Sheet1 ---", "ALT,120,U/L", "--- Sheet2 ---"} {
			if !strings.Contains(p, want) {
				t.Fatalf("prompt missing %q:\n%s", want, p)
			}
		}
	}

	// 7) Descargar reporte
	{
		req, _ := http.NewRequest("GET", ts.URL+"/api/sessions/"+s.ID+"/report.html", nil)
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("download: %v", err)
		}
		defer res.Body.Close()
		body, _ := io.ReadAll(res.Body)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 report, got %d", res.StatusCode)
		}
		if cd := res.Header.Get("Content-Disposition"); !strings.Contains(cd, "ai_vet_report.html") {
			t.Fatalf("unexpected content-disposition %q", cd)
		}
		if string(body) != "<!DOCTYPE html><h1>🏥 보고서</h1>" {
			t.Fatalf("unexpected report body %s", string(body))
		}
	}

	// 8) Archivo con extensión inválida: limpia el contenido anterior
	{
		st, body := upload(t, ts.URL+"/api/sessions/"+s.ID+"/upload", "report.txt", []byte("hola"), nil)
		if st != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 for .txt, got %d body=%s", st, string(body))
		}
		var got struct {
			Error   string      `json:"error"`
			Session sessionResp `json:"session"`
		}
		mustJSON(t, body, &got)
		if got.Error != "엑셀 파일(.xlsx, .xls)만 업로드할 수 있습니다." {
			t.Fatalf("unexpected upload error %q", got.Error)
		}
		if got.Session.FileName != "" || got.Session.FileBytes != 0 {
			t.Fatalf("expected cleared file content, got %+v", got.Session)
		}
	}
}

func TestHTTP_ProviderFailureIsFallbackHTML(t *testing.T) {
	ts := newServer(t, &fakeProvider{err: &llm.ProviderError{Provider: "fake", Err: errors.New("API key not valid")}})

	_, body := doReq(t, ts.URL, "POST", "/api/sessions", "", nil)
	var s sessionResp
	mustJSON(t, body, &s)

	st, body := doReq(t, ts.URL, "POST", "/api/sessions/"+s.ID+"/analyze", "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 even on provider failure, got %d", st)
	}
	var got sessionResp
	mustJSON(t, body, &got)
	if !got.Fallback || !strings.Contains(got.Result, "<pre>API key not valid</pre>") || got.AnalysisError != "" {
		t.Fatalf("expected fallback html, got %+v", got)
	}
}

func TestHTTP_UnknownSession(t *testing.T) {
	ts := newServer(t, &fakeProvider{})

	for _, c := range []struct{ method, path string }{
		{"GET", "/api/sessions/nope"},
		{"POST", "/api/sessions/nope/analyze"},
		{"GET", "/api/sessions/nope/report.html"},
	} {
		st, _ := doReq(t, ts.URL, c.method, c.path, "", nil)
		if st != http.StatusNotFound {
			t.Fatalf("%s %s: expected 404, got %d", c.method, c.path, st)
		}
	}
}

func TestHTTP_PromptPreview_DefaultRecord(t *testing.T) {
	ts := newServer(t, &fakeProvider{})

	_, body := doReq(t, ts.URL, "GET", "/api/patients/default", "", nil)
	var rec map[string]any
	mustJSON(t, body, &rec)

	st, body := doReq(t, ts.URL, "POST", "/api/prompt", "", map[string]any{"patient": rec})
	if st != http.StatusOK {
		t.Fatalf("expected 200 prompt preview, got %d body=%s", st, string(body))
	}
	var out struct {
		Prompt string `json:"prompt"`
	}
	mustJSON(t, body, &out)
	if !strings.Contains(out.Prompt, "말티즈") || !strings.Contains(out.Prompt, "업로드된 검사 결과 없음") {
		t.Fatalf("unexpected prompt:\n%s", out.Prompt)
	}
}

func TestHTTP_PromptPreview_NormalizesLabels(t *testing.T) {
	ts := newServer(t, &fakeProvider{})

	patient := map[string]any{"species": "dog", "breed": "말티즈", "sex": "수"}
	st, body := doReq(t, ts.URL, "POST", "/api/prompt", "", map[string]any{"patient": patient})
	if st != http.StatusOK {
		t.Fatalf("expected 200 prompt preview, got %d body=%s", st, string(body))
	}
	var out struct {
		Prompt string `json:"prompt"`
	}
	mustJSON(t, body, &out)
	if !strings.Contains(out.Prompt, "- 종: 개\n") || !strings.Contains(out.Prompt, "- 성별: 수, 중성화 안함") {
		t.Fatalf("expected canonical species/sex in prompt:\n%s", out.Prompt)
	}

	patient["sex"] = "X"
	st, _ = doReq(t, ts.URL, "POST", "/api/prompt", "", map[string]any{"patient": patient})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid sex, got %d", st)
	}
}

func newWebClient(t *testing.T) *http.Client {
	t.Helper()
	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestHTTP_WebPage_UploadKeepsUnsavedPatient(t *testing.T) {
	fp := &fakeProvider{}
	ts := newServer(t, fp)
	client := newWebClient(t)
	_ = getPage(t, client, ts.URL+"/")

	fields := url.Values{
		"formPresent":  {"1"},
		"species":      {"DOG"},
		"breed":        {"말티즈"},
		"name":         {"초코"},
		"specialNotes": {"식욕 저하"},
	}
	st, _ := uploadWithFields(t, ts.URL+"/upload", "cbc.xlsx", twoSheetWorkbook(t), fields, client)
	if st != http.StatusSeeOther {
		t.Fatalf("expected 303 after upload, got %d", st)
	}

	page := getPage(t, client, ts.URL+"/")
	if !strings.Contains(page, `value="초코"`) || !strings.Contains(page, "식욕 저하") {
		t.Fatalf("expected patient fields sent with the upload to be kept")
	}
	if !strings.Contains(page, "cbc.xlsx") {
		t.Fatalf("expected uploaded file name")
	}

	res, err := client.PostForm(ts.URL+"/analyze", url.Values{})
	if err != nil {
		t.Fatalf("post analyze: %v", err)
	}
	res.Body.Close()
	p := fp.lastPrompt()
	if !strings.Contains(p, "- 이름: 초코") || !strings.Contains(p, "--- Sheet2 ---") {
		t.Fatalf("unexpected prompt:\n%s", p)
	}
}

func TestHTTP_WebPage_InvalidFormKeepsSubmittedValues(t *testing.T) {
	ts := newServer(t, &fakeProvider{})
	client := newWebClient(t)
	_ = getPage(t, client, ts.URL+"/")

	form := url.Values{"formPresent": {"1"}, "species": {"DOG"}, "breed": {"말티즈"}, "name": {"나비"}, "testDate": {"2025-13-40"}}
	res, err := client.PostForm(ts.URL+"/patient", form)
	if err != nil {
		t.Fatalf("post patient: %v", err)
	}
	b, _ := io.ReadAll(res.Body)
	res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid test date, got %d", res.StatusCode)
	}
	page := string(b)
	if !strings.Contains(page, "testDate must be YYYY-MM-DD") || !strings.Contains(page, `value="나비"`) || !strings.Contains(page, `value="2025-13-40"`) {
		t.Fatalf("expected error with submitted values:\n%s", page)
	}

	// lo rechazado no se guardó
	page = getPage(t, client, ts.URL+"/")
	if strings.Contains(page, `value="나비"`) {
		t.Fatalf("rejected form must not be stored")
	}
}

func TestHTTP_WebPage_FormUploadAnalyze(t *testing.T) {
	fp := &fakeProvider{}
	ts := newServer(t, fp)

	jar, _ := cookiejar.New(nil)
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	// 1) Primera visita: crea sesión y cookie
	page := getPage(t, client, ts.URL+"/")
	if !strings.Contains(page, "금호동물병원") || !strings.Contains(page, `<option value="말티즈" selected>`) {
		t.Fatalf("unexpected first page:\n%s", page)
	}
	if !strings.Contains(page, "분석 시작") {
		t.Fatalf("expected analyze button")
	}

	// 2) Cambio de especie por form
	{
		form := url.Values{"formPresent": {"1"}, "species": {"CAT"}, "breed": {"말티즈"}, "testDate": {"2025-03-14"}}
		res, err := client.PostForm(ts.URL+"/patient", form)
		if err != nil {
			t.Fatalf("post patient: %v", err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusSeeOther {
			t.Fatalf("expected 303 after patient save, got %d", res.StatusCode)
		}
		page := getPage(t, client, ts.URL+"/")
		if !strings.Contains(page, `<option value="CAT" selected>`) || !strings.Contains(page, `<option value="코리안 숏헤어" selected>`) {
			t.Fatalf("expected cat form after species change")
		}
	}

	// 3) Archivo inválido: error inline
	{
		st, _ := upload(t, ts.URL+"/upload", "report.txt", []byte("x"), client)
		if st != http.StatusSeeOther {
			t.Fatalf("expected 303 after upload, got %d", st)
		}
		page := getPage(t, client, ts.URL+"/")
		if !strings.Contains(page, "엑셀 파일(.xlsx, .xls)만 업로드할 수 있습니다.") {
			t.Fatalf("expected inline upload error")
		}
	}

	// 4) Analizar desde el form: guarda ficha y corre análisis
	{
		form := url.Values{"formPresent": {"1"}, "species": {"CAT"}, "breed": {"직접 입력"}, "customBreed": {"터키시 앙고라"}, "isNeutered": {"on"}}
		res, err := client.PostForm(ts.URL+"/analyze", form)
		if err != nil {
			t.Fatalf("post analyze: %v", err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusSeeOther {
			t.Fatalf("expected 303 after analyze, got %d", res.StatusCode)
		}

		p := fp.lastPrompt()
		if !strings.Contains(p, "- 품종: 터키시 앙고라") || !strings.Contains(p, "중성화 완료") || !strings.Contains(p, "업로드된 검사 결과 없음") {
			t.Fatalf("unexpected prompt:\n%s", p)
		}

		page := getPage(t, client, ts.URL+"/")
		if !strings.Contains(page, "<h1>🏥 보고서</h1>") {
			t.Fatalf("expected rendered report in page")
		}
		if !strings.Contains(page, "이미지로 다운로드") || !strings.Contains(page, "html2canvas") {
			t.Fatalf("expected download actions")
		}
	}

	// 5) Descarga con la cookie de la sesión
	{
		res, err := client.Get(ts.URL + "/report.html")
		if err != nil {
			t.Fatalf("get report: %v", err)
		}
		defer res.Body.Close()
		if res.StatusCode != http.StatusOK || !strings.Contains(res.Header.Get("Content-Disposition"), "ai_vet_report.html") {
			t.Fatalf("unexpected report response %d %v", res.StatusCode, res.Header)
		}
	}
}

// -------------------------
// helpers
// -------------------------

func twoSheetWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	_ = f.SetSheetRow("Sheet1", "A1", &[]any{"항목", "결과", "단위"})
	_ = f.SetSheetRow("Sheet1", "A2", &[]any{"ALT", 120, "U/L"})
	if _, err := f.NewSheet("Sheet2"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	_ = f.SetSheetRow("Sheet2", "A1", &[]any{"BUN", 25})

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	return buf.Bytes()
}

func upload(t *testing.T, target, name string, data []byte, client *http.Client) (int, []byte) {
	t.Helper()
	return uploadWithFields(t, target, name, data, nil, client)
}

func uploadWithFields(t *testing.T, target, name string, data []byte, fields url.Values, client *http.Client) (int, []byte) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range fields {
		for _, v := range vs {
			_ = mw.WriteField(k, v)
		}
	}
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write(data)
	_ = mw.Close()

	req, err := http.NewRequest("POST", target, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do upload: %v", err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	return res.StatusCode, body
}

func getPage(t *testing.T, client *http.Client, target string) string {
	t.Helper()
	res, err := client.Get(target)
	if err != nil {
		t.Fatalf("get %s: %v", target, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for %s, got %d", target, res.StatusCode)
	}
	b, _ := io.ReadAll(res.Body)
	return string(b)
}

func mustJSON(t *testing.T, body []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("json unmarshal: %v body=%s", err, string(body))
	}
}

func doReq(t *testing.T, baseURL, method, path, sessionID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set("X-Session-ID", sessionID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
