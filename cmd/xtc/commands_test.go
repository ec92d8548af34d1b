package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoginCommand_PostsCredentials(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/login" {
			http.NotFound(w, r)
			return
		}
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		gotBody = buf.String()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"token":"abc","created":true}`))
	}))
	defer srv.Close()

	cmd := newRootCommand()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--server", srv.URL, "login", "--upstream", "http://panel.test", "-u", "bob", "-p", "pw"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(gotBody, `"username":"bob"`) || !strings.Contains(gotBody, `"server":"http://panel.test"`) {
		t.Fatalf("request body: %s", gotBody)
	}
	if !strings.Contains(out.String(), `"token": "abc"`) {
		t.Fatalf("output: %s", out.String())
	}
}

func TestGetCommand_SendsTokenAndFailsOnError(t *testing.T) {
	t.Setenv("XTC_TOKEN", "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"auth_invalid"}`))
			return
		}
		_, _ = w.Write([]byte(`{"top":[],"movies":[],"series":[]}`))
	}))
	defer srv.Close()

	run := func(args ...string) (string, error) {
		cmd := newRootCommand()
		out := new(bytes.Buffer)
		cmd.SetOut(out)
		cmd.SetArgs(append([]string{"--server", srv.URL}, args...))
		err := cmd.Execute()
		return out.String(), err
	}

	if _, err := run("home"); err != errTokenRequired {
		t.Fatalf("home without token: want errTokenRequired, got %v", err)
	}
	out, err := run("--token", "good", "home")
	if err != nil || !strings.Contains(out, `"top"`) {
		t.Fatalf("home: %q %v", out, err)
	}
	if _, err := run("--token", "bad", "home"); err == nil {
		t.Fatalf("home with bad token should fail")
	}
}
