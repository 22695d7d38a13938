package discord

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Each Opus packet carries one 20ms frame; packets are paced accordingly
const opusFrameDuration = 20 * time.Millisecond

// voiceConn wraps a live discordgo voice connection
type voiceConn struct {
	vc *discordgo.VoiceConnection
}

// PlayFile plays an audio clip from disk, blocking until playback completes.
// The clip is re-containerized to Ogg/Opus by ffmpeg and the Opus packets are
// passed through to the voice connection unmodified.
func (v *voiceConn) PlayFile(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", path,
		"-map_metadata", "-1",
		"-f", "ogg",
		"-c:a", "libopus",
		"-ar", "48000",
		"-ac", "2",
		"-b:a", "96k",
		"-frame_duration", "20",
		"pipe:1",
	)

	return runTranscode(cmd, func(r io.Reader) error {
		return v.streamOpus(ctx, r)
	})
}

// runTranscode starts cmd, feeds its stdout to stream, and reaps the process.
// A stream error kills cmd before waiting: with output left undrained the
// producer blocks once the pipe fills, and Wait would never return.
func runTranscode(cmd *exec.Cmd, stream func(r io.Reader) error) error {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	if streamErr := stream(bufio.NewReaderSize(stdout, 16384)); streamErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return streamErr
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg transcode failed: %w", err)
	}
	return nil
}

func (v *voiceConn) streamOpus(ctx context.Context, r io.Reader) error {
	if err := v.vc.Speaking(true); err != nil {
		return fmt.Errorf("failed to set speaking state: %w", err)
	}
	defer func() { _ = v.vc.Speaking(false) }()

	reader := newOggPacketReader(r)
	ticker := time.NewTicker(opusFrameDuration)
	defer ticker.Stop()

	// The first two Ogg packets are the OpusHead and OpusTags headers
	skip := 2

	for {
		packet, err := reader.nextPacket()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read Opus packet: %w", err)
		}
		if skip > 0 {
			skip--
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		select {
		case v.vc.OpusSend <- packet:
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return fmt.Errorf("voice connection stopped accepting audio")
		}
	}
}

// Disconnect leaves the voice channel
func (v *voiceConn) Disconnect() error {
	if err := v.vc.Disconnect(); err != nil {
		return fmt.Errorf("failed to disconnect from voice channel: %w", err)
	}
	return nil
}

// oggPacketReader extracts logical packets from an Ogg stream. Only the
// framing is parsed; packet payloads are passed through untouched.
type oggPacketReader struct {
	r        io.Reader
	segments [][]byte
	partial  []byte
}

func newOggPacketReader(r io.Reader) *oggPacketReader {
	return &oggPacketReader{r: r}
}

func (o *oggPacketReader) nextPacket() ([]byte, error) {
	for {
		if len(o.segments) > 0 {
			seg := o.segments[0]
			o.segments = o.segments[1:]
			if seg == nil {
				// nil marks a packet boundary recorded while parsing the page
				packet := o.partial
				o.partial = nil
				if packet != nil {
					return packet, nil
				}
				continue
			}
			o.partial = append(o.partial, seg...)
			continue
		}
		if err := o.readPage(); err != nil {
			if errors.Is(err, io.EOF) && len(o.partial) > 0 {
				packet := o.partial
				o.partial = nil
				return packet, nil
			}
			return nil, err
		}
	}
}

func (o *oggPacketReader) readPage() error {
	var header [27]byte
	if _, err := io.ReadFull(o.r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return io.EOF
		}
		return err
	}
	if string(header[0:4]) != "OggS" {
		return fmt.Errorf("invalid Ogg capture pattern %q", header[0:4])
	}

	numSegments := int(header[26])
	lacing := make([]byte, numSegments)
	if _, err := io.ReadFull(o.r, lacing); err != nil {
		return err
	}

	payloadSize := 0
	for _, l := range lacing {
		payloadSize += int(l)
	}
	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(o.r, payload); err != nil {
		return err
	}

	offset := 0
	for _, l := range lacing {
		size := int(l)
		o.segments = append(o.segments, payload[offset:offset+size])
		offset += size
		if l < 255 {
			// Lacing value below 255 terminates the current packet
			o.segments = append(o.segments, nil)
		}
	}
	return nil
}
