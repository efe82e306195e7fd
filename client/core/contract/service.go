// Package contract 实现发布与调用交易的执行流水线
package contract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/expansion/v1/client/core/abi"
	"github.com/expansion/v1/client/core/builder"
	"github.com/expansion/v1/client/core/bundle"
	"github.com/expansion/v1/client/core/effects"
	"github.com/expansion/v1/client/core/metrics"
	"github.com/expansion/v1/client/core/transport"
	"github.com/expansion/v1/client/core/wallet"
	"github.com/expansion/v1/client/core/wire"
	infralog "github.com/expansion/v1/internal/core/infrastructure/log"
	logInterface "github.com/expansion/v1/pkg/interfaces/infrastructure/log"
	"github.com/expansion/v1/pkg/types"
)

// Service 交易执行服务
//
// 不持有跨调用的可变状态，可被多个 goroutine 并发使用。
type Service struct {
	client     transport.Client
	signer     wallet.Signer
	builder    *builder.DefaultTxBuilder
	signatures *abi.Cache
	metrics    *metrics.Metrics
	logger     logInterface.Logger
	config     Config
}

// Option 服务选项
type Option func(*Service)

// WithSignatureCache 构建前按函数签名核对参数
func WithSignatureCache(cache *abi.Cache) Option {
	return func(s *Service) {
		s.signatures = cache
	}
}

// WithMetrics 记录流水线指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService 创建交易执行服务
func NewService(
	client transport.Client,
	signer wallet.Signer,
	config Config,
	logger logInterface.Logger,
	opts ...Option,
) *Service {
	if config.PublishGasBudget == 0 {
		config.PublishGasBudget = DefaultPublishGasBudget
	}
	if config.CallGasBudget == 0 {
		config.CallGasBudget = DefaultCallGasBudget
	}

	s := &Service{
		client:  client,
		signer:  signer,
		builder: builder.NewTxBuilder(client),
		logger:  infralog.NewModuleLogger(logger, "contract"),
		config:  config,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config 当前配置
func (s *Service) Config() Config {
	return s.config
}

// Client 账本客户端
func (s *Service) Client() transport.Client {
	return s.client
}

// ========== 发布 ==========

// PublishResult 发布结果
type PublishResult struct {
	Digest       types.Digest
	PackageID    types.ObjectID  // 唯一的不可变新建实体
	StateID      types.ObjectID  // 唯一的托管状态实体
	UpgradeCapID *types.ObjectID // 升级凭证（若账本返回了类型信息）
	Effects      *types.ExecutionEffects
}

// Publish 发布模块包
//
// 新建实体中必须恰好有一个不可变实体（包）和一个可变实体（托管状态，升级凭证除外）：
// 某一类为空返回 ErrPublishIncomplete，多于一个返回 ErrPublishAmbiguous。
func (s *Service) Publish(ctx context.Context, b *bundle.Bundle) (*PublishResult, error) {
	r := s.newRun(builder.ShapePublish)

	if b == nil || len(b.Modules) == 0 {
		return nil, r.abort(ErrBuildFailed, bundle.ErrEmptyBundle)
	}
	draft := s.builder.CreatePublish(b.Modules, b.Dependencies).WithGasBudget(s.config.PublishGasBudget)

	resp, err := s.execute(ctx, r, draft)
	if err != nil {
		return nil, err
	}

	created := resp.Effects.Created
	var capID *types.ObjectID
	for _, e := range created {
		if e.ObjectType == UpgradeCapType {
			id := e.ObjectID
			capID = &id
			break
		}
	}

	extracted, err := effects.ExtractEntities(effects.WithoutType(created, UpgradeCapType), effects.OneOfEach())
	if err != nil {
		kind := ErrPublishAmbiguous
		var cerr *effects.CardinalityError
		if errors.As(err, &cerr) && cerr.Actual == 0 {
			kind = ErrPublishIncomplete
		}
		return nil, r.abort(kind, err)
	}

	pkg, _ := extracted.First(effects.ClassImmutable)
	state, _ := extracted.First(effects.ClassMutable)
	r.finish()

	return &PublishResult{
		Digest:       resp.Digest,
		PackageID:    pkg.ObjectID,
		StateID:      state.ObjectID,
		UpgradeCapID: capID,
		Effects:      resp.Effects,
	}, nil
}

// ========== 调用 ==========

// Outcome 调用结果
type Outcome struct {
	Digest    types.Digest
	Effects   *types.ExecutionEffects
	Extracted *effects.Extracted
}

// Invoke 调用模块函数
//
// params 为参数结构体，字段声明顺序即参数顺序；rule 为新建实体的数量约定。
func (s *Service) Invoke(ctx context.Context, desc types.CallDescriptor, params interface{}, rule effects.Rule) (*Outcome, error) {
	r := s.newRun(builder.ShapeCall)
	r.logger = r.logger.With("target", desc.Target())

	args, err := wire.Marshal(params)
	if err != nil {
		return nil, r.abort(ErrBuildFailed, err)
	}
	if _, err := desc.Validate(); err != nil {
		return nil, r.abort(ErrBuildFailed, err)
	}
	if desc.GasBudget == 0 {
		desc.GasBudget = s.config.CallGasBudget
	}
	if s.config.CheckSignatures && s.signatures != nil {
		if err := s.signatures.Check(ctx, desc, args); err != nil {
			return nil, r.abort(ErrBuildFailed, err)
		}
	}

	resp, err := s.execute(ctx, r, s.builder.CreateCall(desc, args))
	if err != nil {
		return nil, err
	}

	extracted, err := effects.Extract(resp.Effects, rule)
	if err != nil {
		return nil, r.abort(effects.ErrCardinalityMismatch, err)
	}
	r.finish()

	return &Outcome{
		Digest:    resp.Digest,
		Effects:   resp.Effects,
		Extracted: extracted,
	}, nil
}

// ========== 流水线 ==========

// execute 完成 Building → Signing → Submitted → Finalized，
// 返回带执行效果的响应；之后的效果解释由调用方完成。
func (s *Service) execute(ctx context.Context, r *run, draft *builder.DraftTx) (*transport.ExecuteResponse, error) {
	// Building：账本构建交易需要发送者，先确定发送者
	sender, err := s.selectSender()
	if err != nil {
		r.stage = StageSigning
		return nil, r.abort(ErrNoSignerAddress, err)
	}
	r.logger = r.logger.With("sender", sender.String())

	buildStart := time.Now()
	unsigned, err := draft.WithSender(sender).Seal(ctx)
	s.metrics.ObserveRPC("build_"+string(draft.Shape()), err == nil, time.Since(buildStart))
	if err != nil {
		return nil, r.abort(ErrBuildFailed, err)
	}

	// Signing
	r.advance()
	signed, err := unsigned.Sign(s.signer)
	if err != nil {
		return nil, r.abort(ErrSigningFailed, err)
	}
	digest := signed.Digest()
	r.logger = r.logger.With("digest", digest.String())

	// Submitted：唯一的阻塞点，不重试
	r.advance()
	submitCtx := ctx
	if s.config.SubmissionTimeout > 0 {
		var cancel context.CancelFunc
		submitCtx, cancel = context.WithTimeout(ctx, s.config.SubmissionTimeout)
		defer cancel()
	}

	submitStart := time.Now()
	resp, err := s.client.ExecuteTransaction(submitCtx, signed.Transaction(), transport.DefaultExecuteOptions(), transport.WaitForLocalExecution)
	s.metrics.ObserveRPC("execute", err == nil, time.Since(submitStart))
	if err != nil {
		return nil, r.abort(ErrSubmissionFailed, err)
	}
	if len(resp.Errors) > 0 {
		return nil, r.abort(ErrSubmissionFailed, fmt.Errorf("ledger errors: %v", resp.Errors))
	}

	// Finalized
	if resp.Effects == nil {
		r.stage = StageFinalized
		return nil, r.abort(ErrNoEffectsReturned, fmt.Errorf("transaction %s", digest))
	}
	if !resp.Effects.Status.Succeeded() {
		return nil, r.abort(ErrSubmissionFailed, &ExecutionError{
			Digest: digest.String(),
			Reason: resp.Effects.Status.Error,
		})
	}
	if resp.Digest.IsZero() {
		resp.Digest = digest
	}
	resp.Effects.AnnotateTypes(resp.ObjectChanges)
	r.advance()

	s.metrics.ObserveGas(string(r.shape), resp.Effects.GasUsed.Net())
	r.logger.With(
		"created", len(resp.Effects.Created),
		"mutated", len(resp.Effects.Mutated),
		"gas", builder.GasAmount(resp.Effects.GasUsed).StringTrimmed(),
	).Info("transaction finalized")
	return resp, nil
}

// selectSender 选择发送者：显式配置优先，否则取签名器第一个地址
func (s *Service) selectSender() (types.Address, error) {
	addrs, err := s.signer.ListAddresses()
	if err != nil {
		return types.Address{}, err
	}

	if !s.config.Sender.IsZero() {
		for _, a := range addrs {
			if a == s.config.Sender {
				return a, nil
			}
		}
		return types.Address{}, fmt.Errorf("%w: %s", wallet.ErrAddressNotFound, s.config.Sender)
	}

	if len(addrs) == 0 {
		return types.Address{}, errors.New("signer holds no addresses")
	}
	if len(addrs) > 1 {
		s.logger.With("sender", addrs[0].String(), "addresses", len(addrs)).
			Warn("no sender configured, using first signer address")
	}
	return addrs[0], nil
}

// ========== 单次运行 ==========

// run 一次流水线运行
type run struct {
	id      string
	shape   builder.Shape
	stage   Stage
	start   time.Time
	logger  logInterface.Logger
	metrics *metrics.Metrics
}

func (s *Service) newRun(shape builder.Shape) *run {
	id := uuid.NewString()
	r := &run{
		id:      id,
		shape:   shape,
		stage:   StageBuilding,
		start:   time.Now(),
		logger:  s.logger.With("run_id", id, "shape", string(shape)),
		metrics: s.metrics,
	}
	r.enter(StageBuilding)
	return r
}

func (r *run) enter(stage Stage) {
	r.stage = stage
	r.metrics.ObserveStage(stage.String())
	r.logger.With("stage", stage.String()).Debug("stage transition")
}

func (r *run) advance() {
	r.enter(r.stage.next())
}

// finish 运行成功结束
func (r *run) finish() {
	r.metrics.ObserveRun(string(r.shape), true, time.Since(r.start))
}

// abort 记录中止并返回流水线错误
func (r *run) abort(kind error, err error) error {
	pe := &PipelineError{RunID: r.id, Stage: r.stage, Kind: kind, Err: err}

	r.metrics.ObserveStage(StageAborted.String())
	r.metrics.ObserveFailure(kind.Error())
	r.metrics.ObserveRun(string(r.shape), false, time.Since(r.start))

	fields := []interface{}{"stage", r.stage.String(), "kind", kind.Error()}
	if err != nil {
		fields = append(fields, "error", err.Error())
	}
	r.logger.With(fields...).Error("pipeline aborted")

	r.stage = StageAborted
	return pe
}
