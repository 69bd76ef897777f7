// Package saga 本地Saga编排
//
// 订单写流程跨越两个存储（MySQL库存、MongoDB订单），无法放进同一个数据库事务。
// Saga将流程拆为若干步骤，每步带补偿操作；某步失败时按逆序补偿已完成的步骤。
//
// 要点：
// - 补偿操作只依赖自身Action的结果（通过闭包捕获）
// - 补偿失败不会中断其余补偿，错误汇总后与原始错误一起返回
// - Saga保证最终一致性，补偿期间数据可能短暂处于中间状态
package saga

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/bookstore-admin/pkg/metrics"
)

// Step 表示Saga中的一个步骤
type Step struct {
	Name       string                          // 步骤名称（用于日志和调试）
	Action     func(ctx context.Context) error // 正向操作
	Compensate func(ctx context.Context) error // 补偿操作，可为nil
}

// Saga 表示一个Saga事务
// 非并发安全，每个请求创建一个新实例
type Saga struct {
	name     string
	steps    []Step
	executed []Step
	timeout  time.Duration
	logger   *zap.Logger
}

// Option Saga可选配置
type Option func(*Saga)

// WithLogger 设置日志器（默认zap.NewNop）
func WithLogger(l *zap.Logger) Option {
	return func(s *Saga) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithName 设置Saga名称，出现在日志中
func WithName(name string) Option {
	return func(s *Saga) { s.name = name }
}

// NewSaga 创建一个新的Saga事务
//
// 示例：
//
//	s := saga.NewSaga(15*time.Second, saga.WithName("创建订单"))
//	s.AddStep("预留库存", reserve, release)
//	s.AddStep("保存订单", save, nil)
//	err := s.Execute(ctx)
func NewSaga(timeout time.Duration, opts ...Option) *Saga {
	s := &Saga{
		name:    "saga",
		steps:   make([]Step, 0, 4),
		timeout: timeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddStep 添加一个Saga步骤，按添加顺序执行，按逆序补偿
func (s *Saga) AddStep(name string, action, compensate func(ctx context.Context) error) {
	s.steps = append(s.steps, Step{
		Name:       name,
		Action:     action,
		Compensate: compensate,
	})
}

// Execute 执行Saga事务
//
// 返回的错误保留原始步骤错误（errors.Is/As可匹配），
// 若补偿也失败，补偿错误通过errors.Join附加在后面
func (s *Saga) Execute(ctx context.Context) error {
	start := time.Now()
	s.executed = s.executed[:0]

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	for i, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return s.fail(ctx, start, fmt.Errorf("saga[%s]超时: %w", s.name, err))
		}

		if step.Action != nil {
			if err := step.Action(ctx); err != nil {
				return s.fail(ctx, start, fmt.Errorf("步骤[%d:%s]执行失败: %w", i, step.Name, err))
			}
		}

		s.executed = append(s.executed, step)
	}

	metrics.RecordSaga(metrics.ResultSuccess, time.Since(start))
	return nil
}

func (s *Saga) fail(ctx context.Context, start time.Time, err error) error {
	s.logger.Warn("saga执行失败，开始补偿",
		zap.String("saga", s.name),
		zap.Int("executed_steps", len(s.executed)),
		zap.Error(err),
	)

	// 使用不会被取消的Context，避免补偿也因超时中断
	compErr := s.compensate(context.WithoutCancel(ctx))
	metrics.RecordSaga(metrics.ResultFailure, time.Since(start))

	if compErr != nil {
		return errors.Join(err, compErr)
	}
	return err
}

// compensate 逆序执行已完成步骤的补偿，尽最大努力执行全部补偿
func (s *Saga) compensate(ctx context.Context) error {
	var errs []error

	for i := len(s.executed) - 1; i >= 0; i-- {
		step := s.executed[i]
		if step.Compensate == nil {
			continue
		}

		metrics.RecordSagaCompensation()
		if err := step.Compensate(ctx); err != nil {
			// 补偿失败需要人工介入，记录完整上下文
			s.logger.Error("saga补偿失败",
				zap.String("saga", s.name),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			errs = append(errs, fmt.Errorf("补偿[%s]失败: %w", step.Name, err))
		}
	}

	s.executed = s.executed[:0]
	return errors.Join(errs...)
}
