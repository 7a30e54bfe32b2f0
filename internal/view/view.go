// Package view はサーバーレンダリングされるHTMLテンプレートの管理を提供する。
// テンプレートはバイナリに埋め込み、起動時に一度だけパースする。
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/hitoshi/taskmaster/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// IndexData はタスク一覧画面の描画パラメータ。
// 匿名・認証済みの両状態を単一テンプレートで表現する。
type IndexData struct {
	Authenticated bool
	Email         string
	Tasks         []model.Task
	EditingID     string // 非空ならそのタスクがインライン編集モードになる
	FormError     string
	CSRFToken     string
}

// LoginData はログイン・サインアップ画面の描画パラメータ。
type LoginData struct {
	Error     string
	Message   string
	CSRFToken string
}

// View はパース済みテンプレートのセット。
type View struct {
	index        *template.Template
	login        *template.Template
	confirmation *template.Template
}

// New は埋め込みテンプレートをパースしてViewを生成する。
// テンプレートの欠落や構文エラーは起動時に検出される。
func New() (*View, error) {
	v := &View{}

	pages := []struct {
		name string
		dst  **template.Template
	}{
		{"index.html", &v.index},
		{"login.html", &v.login},
		{"confirmation.html", &v.confirmation},
	}

	for _, p := range pages {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+p.name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", p.name, err)
		}
		*p.dst = t
	}

	return v, nil
}

// RenderIndex はタスク一覧画面を描画する。
func (v *View) RenderIndex(w io.Writer, data IndexData) error {
	if err := v.index.ExecuteTemplate(w, "layout", data); err != nil {
		return fmt.Errorf("failed to render index: %w", err)
	}
	return nil
}

// RenderLogin はログイン・サインアップ画面を描画する。
func (v *View) RenderLogin(w io.Writer, data LoginData) error {
	if err := v.login.ExecuteTemplate(w, "layout", data); err != nil {
		return fmt.Errorf("failed to render login: %w", err)
	}
	return nil
}

// RenderConfirmation はメール確認完了画面を描画する。
func (v *View) RenderConfirmation(w io.Writer) error {
	if err := v.confirmation.ExecuteTemplate(w, "layout", nil); err != nil {
		return fmt.Errorf("failed to render confirmation: %w", err)
	}
	return nil
}
