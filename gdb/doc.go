// Package gdb layers command and reply semantics for driving a GDB remote
// stub on top of the rsp packet transport.
//
// A Client turns the packet exchange into request/reply calls: Cmd sends a
// textual command and returns the stub's reply, CmdBinary does the same
// for commands and replies carrying binary bytes, and CmdNoReply covers
// commands like "vCont;c" that answer only when the program next stops.
// StopReply collects that eventual stop reply together with any console
// output the program printed on the way, and Interrupt breaks into a
// running program.
//
// The usual session shape is:
//
//	cfg, err := rsp.NewConnConfig("127.0.0.1", 3333)
//	client, err := gdb.NewClient(cfg)
//	err = client.Connect(ctx)
//	defer client.Close()
//
//	reply, err := client.Cmd("qSupported")
//	err = client.CmdNoReply("vCont;c")
//	stop, console, err := client.StopReply()
//
// A Pool collects named clients for tools that talk to several stubs at
// once, such as multi-core targets exposing one stub per core.
package gdb
