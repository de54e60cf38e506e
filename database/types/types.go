// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package types

import (
	"errors"

	"github.com/blinklabs-io/gouroboros/cbor"
)

var ErrBlobKeyNotFound = errors.New("blob key not found")

var ErrTxnWrongType = errors.New("invalid transaction type")

var ErrNilTxn = errors.New("nil transaction")

var ErrNoStoreAvailable = errors.New("no store available")

var ErrBlobStoreUnavailable = errors.New("blob store unavailable")

var ErrMetadataStoreUnavailable = errors.New("metadata store unavailable")

type BlobItem interface {
	Key() []byte
	ValueCopy(dst []byte) ([]byte, error)
}

type BlobIterator interface {
	Rewind()
	Seek(prefix []byte)
	Valid() bool
	ValidForPrefix(prefix []byte) bool
	Next()
	Item() BlobItem
	Close()
	Err() error
}

type BlobIteratorOptions struct {
	Prefix  []byte
	Reverse bool
}

// Txn is a simple transaction handle for commit/rollback only.
// The database layer (database.Txn) coordinates the blob and metadata
// transactions.
type Txn interface {
	Commit() error
	Rollback() error
}

// QueuedProposalBlob is the stored form of a queued proposal
type QueuedProposalBlob struct {
	cbor.StructAsArray
	Body      []byte
	Submitter string
}

// ProposalInfoBlob is the stored form of a proposal outcome within a
// referendum. Status selects which of the remaining fields are meaningful.
type ProposalInfoBlob struct {
	cbor.StructAsArray
	Status       uint8
	ProposalHash []byte
	AyeVotes     uint32
	NayVotes     uint32
	Approved     bool
	End          uint64
}

const (
	ProposalInfoStatusOngoing  uint8 = 0
	ProposalInfoStatusFinished uint8 = 1
)
