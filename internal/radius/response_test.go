package radius

import (
	"net"
	"testing"

	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
)

func TestBuildAccessAccept(t *testing.T) {
	req := radius.New(radius.CodeAccessRequest, testSecret)
	req.Identifier = 7

	resp := BuildAccessAccept(req, &AcceptParams{
		FramedIP:    net.ParseIP("192.168.5.10"),
		SessionUUID: "8f14e45f-ceea-4673-9a2f-5d0f4d7c1a10",
	})

	if resp.Code != radius.CodeAccessAccept {
		t.Errorf("code = %v, want Access-Accept", resp.Code)
	}
	if resp.Identifier != 7 {
		t.Errorf("identifier = %d, want 7", resp.Identifier)
	}
	if resp.Authenticator != req.Authenticator {
		t.Error("authenticator not copied from request")
	}
	if ip := rfc2865.FramedIPAddress_Get(resp); ip == nil || ip.String() != "192.168.5.10" {
		t.Errorf("Framed-IP-Address = %v, want 192.168.5.10", ip)
	}
	if got := string(rfc2865.Class_Get(resp)); got != "8f14e45f-ceea-4673-9a2f-5d0f4d7c1a10" {
		t.Errorf("Class = %q, want session UUID", got)
	}
}

func TestBuildAccessAcceptNoFramedIP(t *testing.T) {
	req := radius.New(radius.CodeAccessRequest, testSecret)

	resp := BuildAccessAccept(req, &AcceptParams{SessionUUID: "8f14e45f-ceea-4673-9a2f-5d0f4d7c1a10"})

	if ip := rfc2865.FramedIPAddress_Get(resp); ip != nil {
		t.Errorf("Framed-IP-Address = %v, want absent", ip)
	}
}

func TestBuildAccessReject(t *testing.T) {
	req := radius.New(radius.CodeAccessRequest, testSecret)

	resp := BuildAccessReject(req, "Authentication failed")

	if resp.Code != radius.CodeAccessReject {
		t.Errorf("code = %v, want Access-Reject", resp.Code)
	}
	if got := rfc2865.ReplyMessage_GetString(resp); got != "Authentication failed" {
		t.Errorf("Reply-Message = %q, want fixed message", got)
	}
}

func TestBuildAccountingResponse(t *testing.T) {
	req := radius.New(radius.CodeAccountingRequest, testSecret)
	req.Identifier = 3

	resp := BuildAccountingResponse(req)

	if resp.Code != radius.CodeAccountingResponse {
		t.Errorf("code = %v, want Accounting-Response", resp.Code)
	}
	if resp.Identifier != 3 {
		t.Errorf("identifier = %d, want 3", resp.Identifier)
	}
	if len(resp.Attributes) != 0 {
		t.Errorf("attributes = %d, want none", len(resp.Attributes))
	}
}
