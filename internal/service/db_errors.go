package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"mkwa_fitness_backend/internal/util"

	"github.com/go-sql-driver/mysql"
)

// mapDBError 把驱动层错误翻译成业务错误。
// 锁等待超时 (MySQL 1205)、死锁回滚 (1213)、SQLite 锁冲突和
// 事务内的超时统一映射为可重试的 ErrConcurrencyConflict，
// 连接级故障映射为 ErrStorageUnavailable。其余错误原样透传。
func mapDBError(err error) error {
	if err == nil {
		return nil
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1205, 1213:
			return fmt.Errorf("%w: %v", util.ErrConcurrencyConflict, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", util.ErrConcurrencyConflict, err)
	}
	if strings.Contains(err.Error(), "database is locked") {
		return fmt.Errorf("%w: %v", util.ErrConcurrencyConflict, err)
	}

	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		strings.Contains(err.Error(), "connection refused") {
		return fmt.Errorf("%w: %v", util.ErrStorageUnavailable, err)
	}

	return err
}
