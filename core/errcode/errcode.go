// Package errcode 定义点歌、管理与存储相关的错误码
package errcode

import (
	"errors"
	"fmt"
)

// Code 错误码
type Code string

const (
	NotFound         Code = "NOT_FOUND"
	Duplicate        Code = "DUPLICATE"
	Blocked          Code = "BLOCKED"
	URLEmpty         Code = "URL_EMPTY"
	FileEmpty        Code = "FILE_EMPTY"
	DurationZero     Code = "DURATION_ZERO"
	TooLong          Code = "TOO_LONG"
	Busy             Code = "BUSY"
	PermissionDenied Code = "PERMISSION_DENIED"
	RateLimited      Code = "RATE_LIMITED"
	EmptyArgument    Code = "EMPTY_ARGUMENT"
	AlreadyVoted     Code = "ALREADY_VOTED"
	AlreadyBanned    Code = "ALREADY_BANNED"
	NotBanned        Code = "NOT_BANNED"
	QuotaExceeded    Code = "QUOTA_EXCEEDED"
	InvalidIndex     Code = "INVALID_INDEX"
	MessageTooLong   Code = "MESSAGE_TOO_LONG"
	StoreUnavailable Code = "STORE_UNAVAILABLE"
)

// 默认提示文本
var defaultText = map[Code]string{
	NotFound:         "未搜索到此歌曲",
	Duplicate:        "这首歌已经在列表里了",
	Blocked:          "这首歌被设置不允许点播",
	URLEmpty:         "歌曲下载失败，错误代码：ERROR_URL_EMPTY",
	FileEmpty:        "歌曲下载失败，错误代码：ERROR_FILE_EMPTY",
	DurationZero:     "歌曲下载失败，错误代码：ERROR_TIME0",
	TooLong:          "歌曲太长影响他人体验",
	Busy:             "当前有人正在点歌，请稍后再试",
	PermissionDenied: "你没有权限这么做",
	RateLimited:      "发言太快，请稍后再发送",
	EmptyArgument:    "参数不能为空",
	AlreadyVoted:     "你已经投票过了",
	AlreadyBanned:    "这个 IP 已经被禁言了",
	NotBanned:        "这个 IP 没有被禁言",
	QuotaExceeded:    "你已经点了很多歌了，请先听完再点",
	InvalidIndex:     "歌曲序号无效",
	MessageTooLong:   "消息过长",
	StoreUnavailable: "服务器存储异常",
}

// Error 带错误码的错误，Msg 直接展示给用户
type Error struct {
	Code Code
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 使用默认文本创建错误
func New(code Code) *Error {
	return &Error{Code: code, Msg: defaultText[code]}
}

// Newf 使用自定义文本创建错误
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap 附带底层错误
func Wrap(code Code, err error) *Error {
	return &Error{Code: code, Msg: defaultText[code], Err: err}
}

// CodeOf 取出错误码，非本包错误返回空
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// Message 返回用户可见的提示
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "操作失败，请稍后再试"
}
