package xerr

// 业务错误码，HTTP handler 统一映射到 4xx/5xx
const (
	ErrInternalServer = 500 // HTTP 500 意外异常，不向外暴露细节

	ErrBadRequest       = 1000 // HTTP 400
	ErrInvalidInput     = 1001 // HTTP 400 字段校验失败
	ErrMissingParameter = 1002 // HTTP 400 必填参数缺失
	ErrInvalidJSON      = 1003 // HTTP 400 请求体不是合法 JSON

	ErrUnauthenticated = 1100 // HTTP 401 未登录或登录已过期
	ErrInvalidToken    = 1101 // HTTP 401 token 无效
	ErrTokenExpired    = 1102 // HTTP 401 token 过期

	ErrForbidden        = 1200 // HTTP 403
	ErrInsufficientPriv = 1201 // HTTP 403 需要管理员权限

	ErrNotFound = 1300 // HTTP 404 不存在、草稿或已删除统一返回
)
