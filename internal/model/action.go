package model

// Action はフォーム送信の _action フィールドが要求する操作を表す。
// 文字列リテラルの分岐ではなく閉じた列挙として扱い、
// 未知の値は明示的にActionUnknownへ正規化する。
type Action string

const (
	// ActionCreate はタスクの新規作成を示す。
	ActionCreate Action = "create"
	// ActionToggle はタスクの完了フラグ反転を示す。
	ActionToggle Action = "toggle"
	// ActionDelete はタスクの削除を示す。
	ActionDelete Action = "delete"
	// ActionEdit はタスクタイトルの更新を示す。
	ActionEdit Action = "edit"
	// ActionLogin はメール・パスワードによるサインインを示す。
	ActionLogin Action = "login"
	// ActionSignup はアカウント登録を示す。
	ActionSignup Action = "signup"
	// ActionLogout はセッション破棄を示す。
	ActionLogout Action = "logout"
	// ActionUnknown は認識できない操作を示す。
	// タスク画面では何も実行せずに成功レスポンスを返す（既存挙動の維持）。
	ActionUnknown Action = ""
)

// ParseAction は_actionフィールドの値をActionに変換する。
// 認識できない値はActionUnknownを返す。
func ParseAction(s string) Action {
	switch Action(s) {
	case ActionCreate, ActionToggle, ActionDelete, ActionEdit,
		ActionLogin, ActionSignup, ActionLogout:
		return Action(s)
	default:
		return ActionUnknown
	}
}
