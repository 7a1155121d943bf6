package delegationmanager

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"hash"

	errorsmod "cosmossdk.io/errors"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/satlayer/satlayer-restaking/library/types"
)

const approvalDomain = "DelegationApproval"

func writeField(h hash.Hash, bz []byte) {
	var l [4]byte
	binary.BigEndian.PutUint32(l[:], uint32(len(bz)))
	h.Write(l[:])
	h.Write(bz)
}

// ApprovalDigest is the hash an approver signs to let staker delegate to
// operator. Every field is length-prefixed.
func ApprovalDigest(params ApproverDigestHashParams) ([]byte, error) {
	pubKey, err := base64.StdEncoding.DecodeString(params.ApproverPublicKey)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrInvalidInput, "approver public key: %v", err)
	}
	salt, err := base64.StdEncoding.DecodeString(params.ApproverSalt)
	if err != nil {
		return nil, errorsmod.Wrapf(types.ErrInvalidInput, "approver salt: %v", err)
	}

	h := sha256.New()
	writeField(h, []byte(approvalDomain))
	writeField(h, []byte(params.Staker))
	writeField(h, []byte(params.Operator))
	writeField(h, []byte(params.Approver))
	writeField(h, pubKey)
	writeField(h, salt)
	var expiry [8]byte
	binary.BigEndian.PutUint64(expiry[:], uint64(params.Expiry))
	h.Write(expiry[:])
	writeField(h, []byte(params.ContractAddr))
	return h.Sum(nil), nil
}

// Sign signs digest with key and returns the base64 compact signature
// without the recovery byte.
func Sign(key *secp256k1.PrivateKey, digest []byte) string {
	signature := ecdsa.SignCompact(key, digest, true)
	// remove the recovery bit and convert signature to base64 string
	return base64.StdEncoding.EncodeToString(signature[1:])
}

// VerifySignature checks a base64 compact (r || s) signature of digest
// against a compressed secp256k1 public key.
func VerifySignature(pubKey []byte, digest []byte, signature string) error {
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil || len(sig) != 64 {
		return errorsmod.Wrap(types.ErrInvalidSignature, "signature must be 64 bytes of base64")
	}
	key, err := secp256k1.ParsePubKey(pubKey)
	if err != nil {
		return errorsmod.Wrapf(types.ErrInvalidSignature, "public key: %v", err)
	}

	var r, s secp256k1.ModNScalar
	if overflow := r.SetByteSlice(sig[:32]); overflow {
		return errorsmod.Wrap(types.ErrInvalidSignature, "r overflows")
	}
	if overflow := s.SetByteSlice(sig[32:]); overflow {
		return errorsmod.Wrap(types.ErrInvalidSignature, "s overflows")
	}
	if !ecdsa.NewSignature(&r, &s).Verify(digest, key) {
		return types.ErrInvalidSignature
	}
	return nil
}
