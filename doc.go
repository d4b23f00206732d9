// Package serial provides serial device control for Linux, macOS and Windows
// by driving the platform's line-discipline tool (stty or mode) and reading
// and writing the device file directly.
//
// A Device moves through three states. It starts unset; SetDevice selects
// and probes a device; Open opens its byte stream; Close returns it to set.
// Line settings can only be changed while the device is set and not open,
// and reads and writes are only possible while it is open.
//
// # Basic Usage
//
//	ctx := context.Background()
//
//	dev, err := serial.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := dev.SetDevice(ctx, "/dev/ttyUSB0"); err != nil {
//	    log.Fatal(err)
//	}
//	if err := dev.Configure(ctx, serial.DefaultSettings()); err != nil {
//	    log.Fatal(err)
//	}
//
//	guard, err := dev.Open("r+b")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer guard.Release()
//
//	// Send flushes immediately and then waits for the peer
//	err = dev.Send(ctx, []byte("PING\r"), 100*time.Millisecond)
//	reply, err := dev.ReadLine()
//
// # Configuration
//
// Settings can be applied one at a time:
//
//	err = dev.SetBaudRate(ctx, 115200)
//	err = dev.SetParity(ctx, serial.ParityEven)
//	err = dev.SetCharacterLength(ctx, 7)
//	err = dev.SetStopBits(ctx, serial.StopBitsTwo)
//	err = dev.SetFlowControl(ctx, serial.FlowControlRTSCTS)
//
// or together with Configure, which validates every field before running
// anything. On Linux, SetSerialFlag passes driver parameters to setserial
// while the device is open. On Windows the device name must be COMn; on Linux COMn is also
// accepted and maps to /dev/ttyS(n-1).
//
// # Reading
//
//   - ReadPort(n) never blocks and may return fewer than n bytes
//   - ReadPort(0) returns whatever is available now
//   - ReadLine blocks until a CR or LF terminated line arrives
//   - DataAvailable polls without consuming
//   - ReadFlush discards stale input
//
// # Error Handling
//
// Every error matches one kind with errors.Is:
//
//	var (
//	    ErrPrecondition        // wrong lifecycle state
//	    ErrValidation          // value rejected before running anything
//	    ErrConfigApply         // stty/mode ran and failed, see *ApplyError
//	    ErrIO                  // open, read, write or close failed
//	    ErrUnsupportedPlatform // from New only
//	    ErrToolUnavailable     // from New only
//	)
//
// Use errors.As with *ApplyError to get the captured stderr of a failed
// configuration command.
//
// # Testing
//
// Replace the collaborators with WithPlatform, WithRunner and WithOpener to
// drive a Device without hardware or external tools.
package serial
