package apperr

// Stable error codes surfaced as result.errorCode.
const (
	CodeInternal   = "COMMON500"
	CodeBadRequest = "COMMON400"
	CodeTooMany    = "COMMON429"
	CodeConflict   = "COMMON409"

	CodeUnauthorized       = "AUTH401"
	CodeInvalidCredentials = "AUTH4011"
	CodeInvalidToken       = "AUTH4012"
	CodeEmailTaken         = "USER4091"

	CodeSelfRelation     = "RELATION4001"
	CodeInvalidPageLimit = "RELATION4002"
	CodeInvalidStatus    = "RELATION4003"

	CodeServiceNotFound  = "SERVICE4041"
	CodeInterestNotFound = "INTEREST4041"
	CodeNetworkNotFound  = "NETWORK4041"
	CodeBlockNotFound    = "BLOCK4041"

	CodeBlocked        = "BLOCK4031"
	CodeNotRecipient   = "NETWORK4031"
	CodeNotParticipant = "NETWORK4032"
	CodeNotSender      = "NETWORK4033"

	CodeInterestExists  = "INTEREST4091"
	CodeNetworkExists   = "NETWORK4091"
	CodeNetworkResolved = "NETWORK4092"
	CodeNotConnected    = "NETWORK4093"
	CodeBlockExists     = "BLOCK4091"

	CodeRoomNotFound      = "CHAT4041"
	CodeSelfChat          = "CHAT4001"
	CodeNotRoomMember     = "CHAT4002"
	CodeSenderNameMissing = "CHAT4003"
	CodeEmptyMessage      = "CHAT4004"
	CodeInvalidMsgType    = "CHAT4005"
	CodeRoomForbidden     = "CHAT4031"

	CodeCoffeechatNotFound  = "COFFEECHAT4041"
	CodeCoffeechatForbidden = "COFFEECHAT4031"
	CodeCoffeechatResolved  = "COFFEECHAT4091"
	CodeCoffeechatActive    = "COFFEECHAT4092"
	CodeCoffeechatSchedule  = "COFFEECHAT4001"
	CodeCoffeechatNoChange  = "COFFEECHAT4002"
	CodeCoffeechatTitle     = "COFFEECHAT4003"

	CodeFeedNotFound    = "FEED4041"
	CodeCommentNotFound = "FEED4042"
	CodeFeedForbidden   = "FEED4031"
	CodeEmptyContent    = "FEED4001"

	CodeNotificationNotFound  = "NOTIFICATION4041"
	CodeNotificationForbidden = "NOTIFICATION4031"
)
