package capture

import "time"

// ScriptedFrames is a FrameSource that replays a fixed frame sequence.
// Used in tests and when piping pre-recorded frames through a session.
type ScriptedFrames struct {
	Frames []Frame
	next   int
}

// Next returns the next scripted frame, or false when exhausted.
func (s *ScriptedFrames) Next() (Frame, bool) {
	if s.next >= len(s.Frames) {
		return Frame{}, false
	}
	f := s.Frames[s.next]
	s.next++
	return f, true
}

// Close implements FrameSource.
func (s *ScriptedFrames) Close() error {
	return nil
}

// ScriptedCommands is a CommandSource that replays a fixed command
// sequence. Once the script is exhausted it keeps returning
// CommandFinish so a session always terminates.
type ScriptedCommands struct {
	Commands []Command
	next     int
}

// Next returns the next scripted command, ignoring the wait budget.
func (s *ScriptedCommands) Next(time.Duration) Command {
	if s.next >= len(s.Commands) {
		return CommandFinish
	}
	c := s.Commands[s.next]
	s.next++
	return c
}
