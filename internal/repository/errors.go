package repository

import "errors"

// ErrDuplicateEmail は同一メールアドレスのユーザーが既に存在することを示す。
var ErrDuplicateEmail = errors.New("email already registered")
