package client

import (
	"bufio"
	"cow-chat/protocol"
)

const maxFrameLength = 1024 * 1024

// receive reads frames until the connection ends. Replies go to the I/O
// actor for correlation; everything else is shown to the user as is.
func (c *ChatClient) receive() {
	defer close(c.pushes)
	defer close(c.inbound)

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 4096), maxFrameLength)
	for scanner.Scan() {
		frame, err := protocol.Decode(scanner.Bytes())
		if err != nil {
			c.log.Warn("Undecodable line from server", "error", err)
			frame = protocol.Push("", scanner.Text())
		}

		switch frame.Kind {
		case protocol.KindReply:
			c.inbound <- frame
		default:
			c.pushes <- frame
		}
	}
	if err := scanner.Err(); err != nil {
		c.log.Debug("Connection read ended", "error", err)
	}
}
