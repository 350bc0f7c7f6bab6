package protocol

import (
	"errors"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	mapName := "ctf_2fort"
	players := 12
	line, err := Encode(CmdMetadata, &MetadataRequest{Map: &mapName, PlayerCount: &players})
	if err != nil {
		t.Fatal(err)
	}

	env, payload, err := Decode(line)
	if err != nil {
		t.Fatal(err)
	}
	if env.Command != CmdMetadata {
		t.Fatalf("command = %q, want %q", env.Command, CmdMetadata)
	}

	req, err := DecodePayload[MetadataRequest](payload)
	if err != nil {
		t.Fatal(err)
	}
	if req.Map == nil || *req.Map != mapName {
		t.Fatalf("map = %v, want %q", req.Map, mapName)
	}
	if req.GameMode != nil {
		t.Fatalf("game mode = %q, want unset", *req.GameMode)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, _, err := Decode([]byte("not json")); !errors.Is(err, ErrProtocol) {
		t.Fatalf("err = %v, want ErrProtocol", err)
	}
	if _, _, err := Decode([]byte(`{"payload":{}}`)); !errors.Is(err, ErrProtocol) {
		t.Fatalf("err = %v, want ErrProtocol for a missing command", err)
	}
}

func TestDecodeEmptyPayload(t *testing.T) {
	v, err := DecodePayload[ToggleResult](nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.Enabled {
		t.Fatal("zero value expected")
	}
}
