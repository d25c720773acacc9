package service

import (
	"fmt"
	"strings"
	"time"
)

// SimulatedAnswer builds a minimal SDP-style answer for a session offer.
// There is no media stack behind it; the realtime transport is an external
// collaborator and this backend only simulates the negotiation handshake.
func SimulatedAnswer(sessionID, offer string) string {
	var b strings.Builder
	b.WriteString("v=0\r\n")
	fmt.Fprintf(&b, "o=- %d 2 IN IP4 127.0.0.1\r\n", time.Now().Unix())
	b.WriteString("s=leadchat\r\n")
	b.WriteString("t=0 0\r\n")
	if strings.Contains(offer, "m=audio") || offer == "" {
		b.WriteString("m=audio 9 UDP/TLS/RTP/SAVPF 111\r\n")
		b.WriteString("a=recvonly\r\n")
	}
	if strings.Contains(offer, "m=video") {
		b.WriteString("m=video 9 UDP/TLS/RTP/SAVPF 96\r\n")
		b.WriteString("a=recvonly\r\n")
	}
	fmt.Fprintf(&b, "a=mid:%s\r\n", sessionID)
	return b.String()
}
