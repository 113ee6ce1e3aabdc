package radius

import (
	"encoding/binary"
	"errors"
	"net"

	"github.com/google/uuid"
	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
	"layeh.com/radius/rfc2866"
	"layeh.com/radius/rfc2869"
)

// RADIUS属性タイプ定数（RFC 2865/2866/5176）
const (
	AttrTypeUserName         = 1
	AttrTypeUserPassword     = 2
	AttrTypeCHAPPassword     = 3
	AttrTypeNASIPAddress     = 4
	AttrTypeNASPort          = 5
	AttrTypeFramedIPAddr     = 8
	AttrTypeReplyMessage     = 18
	AttrTypeState            = 24
	AttrTypeClass            = 25
	AttrTypeVendorSpecific   = 26
	AttrTypeCalledStationID  = 30
	AttrTypeCallingStationID = 31
	AttrTypeAcctStatusType   = 40
	AttrTypeAcctInputOct     = 42
	AttrTypeAcctOutputOct    = 43
	AttrTypeAcctSessionID    = 44
	AttrTypeAcctSessionTime  = 46
	AttrTypeAcctInputPkts    = 47
	AttrTypeAcctOutputPkts   = 48
	AttrTypeAcctTermCause    = 49
	AttrTypeCHAPChallenge    = 60
	AttrTypeErrorCause       = 101
)

// Acct-Status-Type値（RFC 2866）
const (
	AcctStatusTypeStart   uint32 = 1
	AcctStatusTypeStop    uint32 = 2
	AcctStatusTypeInterim uint32 = 3
	AcctStatusTypeAcctOn  uint32 = 7
	AcctStatusTypeAcctOff uint32 = 8
)

// Acct-Terminate-Cause値（RFC 2866 §5.10、使用するもののみ）
const (
	TermCauseUserRequest uint32 = 1
	TermCauseIdleTimeout uint32 = 4
	TermCauseAdminReset  uint32 = 6
	TermCauseNASReboot   uint32 = 11
)

// 属性抽出エラー
var (
	ErrMissingUserName   = errors.New("missing User-Name")
	ErrMissingStatusType = errors.New("missing Acct-Status-Type")
	ErrMissingSessionID  = errors.New("missing Acct-Session-Id")
)

// AccessAttributes はAccess-Requestから抽出された属性を表す
type AccessAttributes struct {
	Username         string
	RawUserPassword  []byte // 暗号化されたままのUser-Password（PAP）
	CHAPPassword     []byte // Ident(1) + MD5(16)（CHAP）
	CHAPChallenge    []byte // 空ならRequest Authenticatorで代用（RFC 2865 §2.2）
	NasIPAddress     string
	NasPort          uint32
	FramedIPAddress  string
	CallingStationID string
	CalledStationID  string
}

// ExtractAccessAttributes はAccess-Requestから必要な属性を抽出する。
func ExtractAccessAttributes(packet *radius.Packet) (*AccessAttributes, error) {
	attrs := &AccessAttributes{}

	attrs.Username = rfc2865.UserName_GetString(packet)
	if attrs.Username == "" {
		return nil, ErrMissingUserName
	}

	// User-Passwordは復号せずに保持する（復号はAuthenticator側の責務）
	if raw, ok := GetAttribute(packet, radius.Type(AttrTypeUserPassword)); ok {
		attrs.RawUserPassword = raw
	}
	if raw, ok := GetAttribute(packet, radius.Type(AttrTypeCHAPPassword)); ok {
		attrs.CHAPPassword = raw
	}
	if raw, ok := GetAttribute(packet, radius.Type(AttrTypeCHAPChallenge)); ok {
		attrs.CHAPChallenge = raw
	}

	if ip := rfc2865.NASIPAddress_Get(packet); ip != nil {
		attrs.NasIPAddress = ip.String()
	}
	attrs.NasPort = uint32(rfc2865.NASPort_Get(packet))
	if ip := rfc2865.FramedIPAddress_Get(packet); ip != nil {
		attrs.FramedIPAddress = ip.String()
	}
	attrs.CallingStationID = rfc2865.CallingStationID_GetString(packet)
	attrs.CalledStationID = rfc2865.CalledStationID_GetString(packet)

	return attrs, nil
}

// AccountingAttributes はAccounting-Requestから抽出された属性を表す
type AccountingAttributes struct {
	Identifier      uint8    // RADIUSパケットのIdentifier（再送検出用）
	RequestAuth     [16]byte // Request Authenticator（再送検出用）
	StatusType      uint32   // Acct-Status-Type（必須）
	AcctSessionID   string   // Acct-Session-Id（On/Off以外は必須）
	ClassUUID       string   // Class属性からパースしたセッションUUID（空の場合あり）
	Username        string
	NasIPAddress    string
	NasPort         uint32
	FramedIPAddress string
	InputOctets     uint64 // Gigawords折り込み済み（RFC 2869）
	OutputOctets    uint64
	InputPackets    uint64
	OutputPackets   uint64
	SessionTime     uint32
	TerminateCause  uint32
}

// ExtractAccountingAttributes はAccounting-Requestから必要な属性を抽出する。
func ExtractAccountingAttributes(packet *radius.Packet) (*AccountingAttributes, error) {
	attrs := &AccountingAttributes{
		Identifier:  packet.Identifier,
		RequestAuth: packet.Authenticator,
	}

	statusRaw, ok := GetAttribute(packet, radius.Type(AttrTypeAcctStatusType))
	if !ok || len(statusRaw) < 4 {
		return nil, ErrMissingStatusType
	}
	attrs.StatusType = binary.BigEndian.Uint32(statusRaw)

	attrs.AcctSessionID = rfc2866.AcctSessionID_GetString(packet)
	if attrs.AcctSessionID == "" &&
		attrs.StatusType != AcctStatusTypeAcctOn && attrs.StatusType != AcctStatusTypeAcctOff {
		return nil, ErrMissingSessionID
	}

	// Class（Access-Acceptで払い出したセッションUUIDのエコーバック）
	if classRaw, ok := GetAttribute(packet, radius.Type(AttrTypeClass)); ok {
		classValue := string(classRaw)
		if _, err := uuid.Parse(classValue); err == nil {
			attrs.ClassUUID = classValue
		}
	}

	attrs.Username = rfc2865.UserName_GetString(packet)
	if raw, ok := GetAttribute(packet, radius.Type(AttrTypeNASIPAddress)); ok && len(raw) == 4 {
		attrs.NasIPAddress = net.IP(raw).String()
	}
	attrs.NasPort = uint32(rfc2865.NASPort_Get(packet))
	if raw, ok := GetAttribute(packet, radius.Type(AttrTypeFramedIPAddr)); ok && len(raw) == 4 {
		attrs.FramedIPAddress = net.IP(raw).String()
	}

	attrs.InputOctets = uint64(rfc2866.AcctInputOctets_Get(packet))
	attrs.OutputOctets = uint64(rfc2866.AcctOutputOctets_Get(packet))
	attrs.InputPackets = uint64(rfc2866.AcctInputPackets_Get(packet))
	attrs.OutputPackets = uint64(rfc2866.AcctOutputPackets_Get(packet))

	// 4GB超のカウンタはGigawords属性に上位32bitが乗る
	attrs.InputOctets |= uint64(rfc2869.AcctInputGigawords_Get(packet)) << 32
	attrs.OutputOctets |= uint64(rfc2869.AcctOutputGigawords_Get(packet)) << 32

	attrs.SessionTime = uint32(rfc2866.AcctSessionTime_Get(packet))
	attrs.TerminateCause = uint32(rfc2866.AcctTerminateCause_Get(packet))

	return attrs, nil
}

// CoAResponseAttributes はCoA/Disconnect応答（ACK/NAK）から抽出された属性を表す
type CoAResponseAttributes struct {
	Code       radius.Code
	ErrorCause uint32 // Error-Cause属性値（NAK時、なければ0）
}

// ExtractCoAResponseAttributes はCoA/Disconnect応答から属性を抽出する。
func ExtractCoAResponseAttributes(packet *radius.Packet) *CoAResponseAttributes {
	attrs := &CoAResponseAttributes{Code: packet.Code}
	if raw, ok := GetAttribute(packet, radius.Type(AttrTypeErrorCause)); ok && len(raw) == 4 {
		attrs.ErrorCause = binary.BigEndian.Uint32(raw)
	}
	return attrs
}
