// Package security はアプリケーションのセキュリティ機能を提供する。
//
// InputSanitizerService はフォームから送信されたタスクタイトル等の
// 自由入力テキストからHTMLを除去し、プレーンテキストに正規化する。
// bluemondayライブラリの全タグ除去ポリシーを使用する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// InputSanitizerService は自由入力テキストのサニタイズ機能のインターフェースを定義する。
// タスクタイトルの保存前に使用される。
type InputSanitizerService interface {
	// Sanitize は入力からすべてのHTMLタグを除去し、
	// HTMLエンティティをデコードしたうえで前後の空白を取り除いて返す。
	// 格納されるのはプレーンテキストであり、エスケープは描画時にhtml/templateが行う。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// inputSanitizer はInputSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type inputSanitizer struct {
	policy *bluemonday.Policy
}

// NewInputSanitizer はInputSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyはすべてのタグと属性を除去する。
func NewInputSanitizer() *inputSanitizer {
	return &inputSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力をプレーンテキストに正規化して返す。
func (s *inputSanitizer) Sanitize(raw string) string {
	// StrictPolicyはタグを除去し、残りをエンティティとしてエスケープする。
	// 格納するのはプレーンテキストなので、エスケープは元に戻す。
	stripped := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
