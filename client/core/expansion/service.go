package expansion

import (
	"context"
	"fmt"

	"github.com/expansion/v1/client/core/bundle"
	"github.com/expansion/v1/client/core/contract"
	"github.com/expansion/v1/client/core/effects"
	"github.com/expansion/v1/client/core/transport"
	infralog "github.com/expansion/v1/internal/core/infrastructure/log"
	logInterface "github.com/expansion/v1/pkg/interfaces/infrastructure/log"
	"github.com/expansion/v1/pkg/types"
)

// Service expansion 业务服务
type Service struct {
	contract *contract.Service
	compiler *bundle.Compiler
	logger   logInterface.Logger
}

// NewService 创建业务服务
func NewService(contractService *contract.Service, compiler *bundle.Compiler, logger logInterface.Logger) *Service {
	if compiler == nil {
		compiler = bundle.NewCompiler("", logger)
	}
	return &Service{
		contract: contractService,
		compiler: compiler,
		logger:   infralog.NewModuleLogger(logger, "expansion"),
	}
}

// Publish 加载（必要时编译）并发布包
//
// 返回的 PackageID 用作后续调用的包，StateID 为 xcoin 托管对象。
func (s *Service) Publish(ctx context.Context, path string) (*contract.PublishResult, error) {
	b, err := s.compiler.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load package: %w", err)
	}
	s.logger.With("source", b.Source, "modules", len(b.Modules), "bytes", b.Size()).Info("publishing package")

	res, err := s.contract.Publish(ctx, b)
	if err != nil {
		return nil, err
	}
	s.logger.With("package", res.PackageID.String(), "state", res.StateID.String()).Info("package published")
	return res, nil
}

// CreateScene 创建场景，必须恰好新建一个实体
func (s *Service) CreateScene(ctx context.Context, pkg types.ObjectID, params CreateSceneParameter) (types.ObjectID, *contract.Outcome, error) {
	out, err := s.contract.Invoke(ctx, descriptor(pkg, ModuleScenes, FunctionCreateScene), params, effects.ExactlyOne())
	if err != nil {
		return types.ObjectID{}, nil, err
	}
	scene, err := out.Extracted.Only()
	if err != nil {
		return types.ObjectID{}, nil, err
	}
	return scene.ObjectID, out, nil
}

// MintXCoin 铸造 xcoin 给接收者
func (s *Service) MintXCoin(ctx context.Context, pkg types.ObjectID, params CoinMintParameter) (*contract.Outcome, error) {
	return s.contract.Invoke(ctx, descriptor(pkg, ModuleXCoin, FunctionMint), params, effects.Any())
}

// Enter 质押 xcoin 进入场景
func (s *Service) Enter(ctx context.Context, pkg types.ObjectID, params EnterParameter) (*contract.Outcome, error) {
	return s.contract.Invoke(ctx, descriptor(pkg, ModuleScenes, FunctionParticipantEnter), params, effects.Any())
}

// Scene 读取场景当前状态
func (s *Service) Scene(ctx context.Context, id types.ObjectID) (*Scene, error) {
	scene, err := contract.FetchState[Scene](ctx, s.contract, id)
	if err != nil {
		return nil, err
	}
	return &scene, nil
}

// Object 读取任意实体
func (s *Service) Object(ctx context.Context, id types.ObjectID) (*transport.ObjectData, error) {
	return s.contract.FetchObject(ctx, id)
}

func descriptor(pkg types.ObjectID, module, function string) types.CallDescriptor {
	return types.CallDescriptor{
		Package:  pkg.String(),
		Module:   module,
		Function: function,
	}
}
