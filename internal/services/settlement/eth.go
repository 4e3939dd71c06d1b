package settlement

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/sha3"
)

const settleGasLimit = 100_000

// EthSettler settles fills by submitting ERC-20 transfer calls to an
// Ethereum-compatible endpoint.
type EthSettler struct {
	client     *ethclient.Client
	key        *ecdsa.PrivateKey
	from       common.Address
	chainID    *big.Int
	tokens     map[string]common.Address
	recipients map[string]common.Address
	decimals   int32
	logger     *zap.Logger
}

// NewEthSettler dials the RPC endpoint and prepares the signing key.
// tokens maps token symbols to contract addresses, recipients maps owner
// identities to their on-chain addresses.
func NewEthSettler(rpcURL, privateKeyHex string, tokens, recipients map[string]string, decimals int32, logger *zap.Logger) (*EthSettler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "dial settlement endpoint")
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimPrefix(privateKeyHex, "0x"), "0X"))
	if err != nil {
		return nil, errors.Wrap(err, "parse settlement private key")
	}

	chainID, err := client.ChainID(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, "fetch chain id")
	}

	s := &EthSettler{
		client:     client,
		key:        key,
		from:       crypto.PubkeyToAddress(key.PublicKey),
		chainID:    chainID,
		tokens:     make(map[string]common.Address, len(tokens)),
		recipients: make(map[string]common.Address, len(recipients)),
		decimals:   decimals,
		logger:     logger,
	}
	for symbol, addr := range tokens {
		s.tokens[strings.ToLower(symbol)] = common.HexToAddress(addr)
	}
	for owner, addr := range recipients {
		s.recipients[owner] = common.HexToAddress(addr)
	}
	return s, nil
}

// Settle submits a transfer of the acquired leg to the owner's on-chain
// address. Owners or tokens without a mapping are skipped.
func (s *EthSettler) Settle(ctx context.Context, req Request) error {
	token, ok := s.tokens[strings.ToLower(req.Token)]
	if !ok {
		return errors.Errorf("no contract configured for token %s", req.Token)
	}
	recipient, ok := s.recipients[req.Owner]
	if !ok {
		return errors.Errorf("no settlement address configured for owner %s", req.Owner)
	}

	value := req.Amount.Shift(s.decimals).BigInt()
	data := transferCalldata(recipient, value)

	hash, err := s.send(ctx, token, data)
	if err != nil {
		return err
	}

	s.logger.Info("settlement submitted",
		zap.Uint64("trade_id", req.TradeID),
		zap.String("token", req.Token),
		zap.String("tx", hash))
	return nil
}

// Approve grants spender an allowance over the configured token contract.
// Called once at startup when a settlement gateway is configured.
func (s *EthSettler) Approve(ctx context.Context, tokenSymbol, spenderHex string, amount decimal.Decimal) error {
	token, ok := s.tokens[strings.ToLower(tokenSymbol)]
	if !ok {
		return errors.Errorf("no contract configured for token %s", tokenSymbol)
	}

	value := amount.Shift(s.decimals).BigInt()
	data := approveCalldata(common.HexToAddress(spenderHex), value)

	hash, err := s.send(ctx, token, data)
	if err != nil {
		return err
	}

	s.logger.Info("approval submitted", zap.String("token", tokenSymbol), zap.String("tx", hash))
	return nil
}

func (s *EthSettler) send(ctx context.Context, contract common.Address, data []byte) (string, error) {
	nonce, err := s.client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return "", errors.Wrap(err, "fetch nonce")
	}

	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", errors.Wrap(err, "suggest gas price")
	}

	tx := types.NewTransaction(nonce, contract, big.NewInt(0), settleGasLimit, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return "", errors.Wrap(err, "sign settlement tx")
	}

	if err := s.client.SendTransaction(ctx, signed); err != nil {
		return "", errors.Wrap(err, "send settlement tx")
	}
	return signed.Hash().Hex(), nil
}

func transferCalldata(to common.Address, value *big.Int) []byte {
	data := make([]byte, 0, 4+2*32)
	data = append(data, methodID("transfer(address,uint256)")...)
	data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(value.Bytes(), 32)...)
	return data
}

func approveCalldata(spender common.Address, value *big.Int) []byte {
	data := make([]byte, 0, 4+2*32)
	data = append(data, methodID("approve(address,uint256)")...)
	data = append(data, common.LeftPadBytes(spender.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(value.Bytes(), 32)...)
	return data
}

func methodID(signature string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return h.Sum(nil)[:4]
}
