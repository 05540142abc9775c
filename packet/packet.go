// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package packet implements the Information Packet (IP): an opaque, owned
// unit of data flowing between components.
package packet

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Role distinguishes a normal data packet from a bracket marker used to
// delimit substreams.
type Role uint8

const (
	RoleNormal Role = iota
	RoleOpenBracket
	RoleCloseBracket
)

func (r Role) String() string {
	switch r {
	case RoleOpenBracket:
		return "open-bracket"
	case RoleCloseBracket:
		return "close-bracket"
	default:
		return "normal"
	}
}

// Packet is a typed, owned unit of data. The zero value is not usable;
// construct one with New, OpenBracket, or CloseBracket.
//
// A Packet in transit is owned by the Connection carrying it; a received
// Packet is owned by the receiving Component until it is sent onward or
// explicitly Dropped.
type Packet struct {
	id       string
	role     Role
	contents any
	typeName string
	creator  string

	dropped atomic.Bool
}

// New creates a normal packet carrying contents declared as typeName.
// creator is the component name tagged onto the packet for leak reporting.
func New(contents any, typeName, creator string) *Packet {
	return &Packet{
		id:       uuid.New().String(),
		role:     RoleNormal,
		contents: contents,
		typeName: typeName,
		creator:  creator,
	}
}

// OpenBracket creates a bracket packet with no payload, opening a substream.
func OpenBracket(label, creator string) *Packet {
	return &Packet{id: uuid.New().String(), role: RoleOpenBracket, contents: label, creator: creator}
}

// CloseBracket creates a bracket packet with no payload, closing a substream.
func CloseBracket(label, creator string) *Packet {
	return &Packet{id: uuid.New().String(), role: RoleCloseBracket, contents: label, creator: creator}
}

// ID returns a unique identifier assigned at creation, useful for event
// stream correlation.
func (p *Packet) ID() string { return p.id }

// Role reports whether this is a normal packet or a bracket marker.
func (p *Packet) Role() Role { return p.role }

// IsBracket reports whether Role is OpenBracket or CloseBracket.
func (p *Packet) IsBracket() bool {
	return p.role == RoleOpenBracket || p.role == RoleCloseBracket
}

// TypeName returns the declared type name of the payload, empty for
// bracket packets.
func (p *Packet) TypeName() string { return p.typeName }

// Creator returns the name of the component that created this packet.
func (p *Packet) Creator() string { return p.creator }

// Label returns the bracket label for open/close-bracket packets (empty
// string if none was given), and is meaningless for normal packets.
func (p *Packet) Label() string {
	if !p.IsBracket() {
		return ""
	}
	s, _ := p.contents.(string)
	return s
}

// Contents returns the payload. Non-destructive: it may be called any
// number of times while the caller owns the packet.
func (p *Packet) Contents() any {
	return p.contents
}

// Drop releases ownership of the packet. It is idempotent; the owning
// component's outstanding-packet counter should be decremented exactly
// once per packet regardless of how many times Drop is called (callers
// should check the returned bool to do that bookkeeping only on the first
// call that actually dropped it).
func (p *Packet) Drop() bool {
	return p.dropped.CompareAndSwap(false, true)
}

// Dropped reports whether Drop has already been called.
func (p *Packet) Dropped() bool {
	return p.dropped.Load()
}
