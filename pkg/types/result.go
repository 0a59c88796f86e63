package types

// ============================================================================
//                              ResultCode - 注册结果
// ============================================================================

// ResultCode 公钥注册的协议结果码
type ResultCode int

const (
	// ResultNone 请求未进入注册协议（被拒绝或不合法），伴随错误返回
	ResultNone ResultCode = iota
	// ResultOK 注册成功
	ResultOK
	// ResultServerError 存储失败等服务端错误
	ResultServerError
)

// String 返回结果码的字符串表示
func (c ResultCode) String() string {
	switch c {
	case ResultNone:
		return "NONE"
	case ResultOK:
		return "OK"
	case ResultServerError:
		return "SERVER_ERROR"
	default:
		return "UNKNOWN"
	}
}

// ============================================================================
//                              Verdict - 滥用检测结论
// ============================================================================

// RejectReason 拒绝原因
type RejectReason int

const (
	// ReasonNone 未拒绝
	ReasonNone RejectReason = iota
	// ReasonBlocked 地址处于封禁期
	ReasonBlocked
	// ReasonTooManyAttempts 窗口内注册尝试过多
	ReasonTooManyAttempts
	// ReasonChurn 窗口内不同 ID 过多
	ReasonChurn
	// ReasonTooManyIdentities 一天内触达的不同 ID 过多
	ReasonTooManyIdentities
)

// String 返回拒绝原因的字符串表示
func (r RejectReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonBlocked:
		return "blocked"
	case ReasonTooManyAttempts:
		return "too_many_attempts"
	case ReasonChurn:
		return "churn"
	case ReasonTooManyIdentities:
		return "too_many_identities"
	default:
		return "unknown"
	}
}

// Verdict 滥用检测结论
type Verdict struct {
	// Allowed 是否放行
	Allowed bool

	// Reason 拒绝原因（放行时为 ReasonNone）
	Reason RejectReason
}

// Allow 放行结论
func Allow() Verdict {
	return Verdict{Allowed: true}
}

// Reject 拒绝结论
func Reject(reason RejectReason) Verdict {
	return Verdict{Allowed: false, Reason: reason}
}
