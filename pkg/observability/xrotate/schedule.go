package xrotate

import "time"

// Scheduler 计算轮转时刻
//
// 无状态，可安全地在多个 goroutine 间共享。
type Scheduler struct {
	policy Policy
}

// NewScheduler 创建轮转时刻计算器
func NewScheduler(p Policy) Scheduler {
	return Scheduler{policy: p}
}

// Next 返回严格晚于 t 的下一个轮转时刻
//
// 规则：
//   - S/M/H/D：floor(t/step)*step + step，按 Unix 纪元对齐
//   - MIDNIGHT：t 所在日的本地午夜 + interval 天
//   - W0~W6：t 之后第一个指定星期的本地午夜；t 本身就是该边界时为 t + 7*interval 天
//
// MIDNIGHT 和按周轮转按本地日历日推进，边界始终是当天的第一个时刻：
// 进入夏令时的那一天间隔为 23 小时，退出夏令时为 25 小时；
// 午夜不存在的日子（夏令时在 00:00 开始）边界为时区切换点。
func (s Scheduler) Next(t time.Time) time.Time {
	p := s.policy
	t = t.In(p.loc)

	if !p.unit.calendar() {
		step := p.Step()
		sec := int64(step / time.Second)
		floor := t.Unix() / sec * sec
		if t.Unix() < 0 && t.Unix()%sec != 0 {
			floor -= sec
		}
		next := time.Unix(floor+sec, 0).In(p.loc)
		for !next.After(t) {
			next = next.Add(step)
		}
		return next
	}

	var y int
	var mo time.Month
	var d, days int
	switch p.unit {
	case UnitMidnight:
		y, mo, d = t.Date()
		days = p.interval
	default:
		anchor := lastWeekdayMidnight(t, p.loc, p.weekday)
		y, mo, d = anchor.In(p.loc).Date()
		days = 7
		if t.Equal(anchor) {
			days = 7 * p.interval
		}
	}

	// 按日历日推进，而不是加固定时长
	step := int(p.Step() / (24 * time.Hour))
	next := dayStart(y, mo, d+days, p.loc)
	for !next.After(t) {
		days += step
		next = dayStart(y, mo, d+days, p.loc)
	}
	return next
}

// Crossed 返回从 from 开始、不晚于 now 的最后一个轮转时刻
//
// from 必须是一个轮转时刻（通常是写入器记录的 nextRolloverAt）。
// 长时间无写入后，跳过中间所有边界，只轮转一次。
func (s Scheduler) Crossed(from, now time.Time) time.Time {
	if now.Before(from) {
		return from
	}
	if !s.policy.unit.calendar() {
		// 固定步长：直接定位到 now 之前的最后一个边界
		step := s.policy.Step()
		last := s.Next(now).Add(-step)
		if last.Before(from) {
			return from
		}
		return last.In(s.policy.loc)
	}

	b := from
	for {
		n := s.Next(b)
		if n.After(now) {
			return b
		}
		b = n
	}
}

// midnight 返回 t 所在日的本地午夜
func midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return dayStart(y, m, d, loc)
}

// dayStart 返回 loc 中 y-m-d 这一天的第一个时刻，d 可以溢出
//
// 夏令时在午夜开始的时区（如 America/Santiago）当天没有 00:00，
// time.Date 会回落到前一天 23:00，此时取时区切换点。
func dayStart(y int, m time.Month, d int, loc *time.Location) time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	want := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	if t.Year() != want.Year() || t.YearDay() != want.YearDay() {
		_, end := t.ZoneBounds()
		if !end.IsZero() {
			t = end
		}
	}
	return t
}

// lastWeekdayMidnight 返回不晚于 t 的最后一个指定星期（0 为周一）的本地午夜
func lastWeekdayMidnight(t time.Time, loc *time.Location, weekday int) time.Time {
	m := midnight(t, loc)
	target := time.Weekday((weekday + 1) % 7)
	back := (int(m.Weekday()) - int(target) + 7) % 7
	y, mo, d := m.Date()
	return dayStart(y, mo, d-back, loc)
}
