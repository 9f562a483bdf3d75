package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/drblury/protoenclave/internal/runtime/codec"
	"github.com/drblury/protoenclave/internal/runtime/envelope"
	idspkg "github.com/drblury/protoenclave/internal/runtime/ids"
)

type encodeFlags struct {
	variant   string
	requestID string
	format    string
	out       string

	attribute string
	seedHex   string
	proposal  string
	vote      string
	sigHex    string
	amount    int64
	receiver  string
}

func runEncode(args []string, stdout, stderr io.Writer) error {
	var f encodeFlags
	fs := newFlagSet("encode", stderr)
	fs.StringVar(&f.variant, "variant", "none", "payload variant: none, identity, governance, income, health")
	fs.StringVar(&f.requestID, "request-id", "", "request id (a ULID when empty)")
	fs.StringVar(&f.format, "format", "binary", "output format: binary or json")
	fs.StringVar(&f.out, "out", "", "output file (stdout when empty)")
	fs.StringVar(&f.attribute, "attribute", "", "identity attribute id")
	fs.StringVar(&f.seedHex, "seed", "", "identity encrypted seed, hex")
	fs.StringVar(&f.proposal, "proposal", "", "governance proposal id")
	fs.StringVar(&f.vote, "vote", "", "governance vote choice")
	fs.StringVar(&f.sigHex, "signature", "", "governance identity signature, hex")
	fs.Int64Var(&f.amount, "amount", 0, "income amount")
	fs.StringVar(&f.receiver, "receiver", "", "income receiver public key")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	req, err := buildRequest(f)
	if err != nil {
		return err
	}
	format, err := codec.ParseFormat(f.format)
	if err != nil {
		return err
	}
	raw, err := codec.New(codec.WithFormat(format)).EncodeRequest(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return writeOutput(f.out, stdout, raw)
}

func buildRequest(f encodeFlags) (envelope.Request, error) {
	req := envelope.Request{RequestID: f.requestID}
	if req.RequestID == "" {
		req.RequestID = idspkg.NewCorrelationID()
	}

	switch envelope.Variant(f.variant) {
	case envelope.VariantNone, "":
	case envelope.VariantIdentity:
		seed, err := decodeHexFlag("seed", f.seedHex)
		if err != nil {
			return envelope.Request{}, err
		}
		req.Payload = &envelope.IdentityPayload{AttributeID: f.attribute, EncryptedIdentitySeed: seed}
	case envelope.VariantGovernance:
		sig, err := decodeHexFlag("signature", f.sigHex)
		if err != nil {
			return envelope.Request{}, err
		}
		req.Payload = &envelope.GovernancePayload{ProposalID: f.proposal, VoteChoice: f.vote, IdentitySignature: sig}
	case envelope.VariantIncome:
		req.Payload = &envelope.IncomePayload{Amount: f.amount, ReceiverPubkey: f.receiver}
	case envelope.VariantHealth:
		req.Payload = &envelope.HealthPayload{}
	default:
		return envelope.Request{}, fmt.Errorf("unknown variant %q", f.variant)
	}
	return req, nil
}

func decodeHexFlag(name, value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("-%s: %w", name, err)
	}
	return b, nil
}
