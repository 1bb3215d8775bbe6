package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tatianab/campus-life/internal/engine"
	"github.com/tatianab/campus-life/internal/models"
)

var (
	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EEEEEE")).
			Background(lipgloss.Color("#5F5F87")).
			Bold(true).
			PaddingLeft(1)

	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	weekStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C6C6C"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	stateStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("#3C3C3C")).
			PaddingLeft(2).
			Foreground(lipgloss.Color("#AAAAAA"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true).
			Underline(true)

	toastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1C1C1C")).
			Background(lipgloss.Color("#FFD75F")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5F5F87")).
			Padding(0, 1)
)

func (m Model) View() string {
	var s string

	switch m.screen {
	case screenMenu:
		st := m.opts.Session.State()
		s = fmt.Sprintf("发现存档：%s，%s 第 %d 周。\n\n%s",
			st.PlayerName, st.Phase.DisplayName(), st.Week,
			helpStyle.Render("c 继续  n 新游戏  q 退出"))

	case screenName:
		s = fmt.Sprintf("欢迎来到高一生活模拟！\n\n%s\n\n%s",
			"你叫什么名字？",
			m.textInput.View(),
		)

	case screenTalents:
		s = m.renderTalents()

	case screenShop:
		s = m.renderShop()

	case screenPlaying:
		mainView := lipgloss.JoinHorizontal(lipgloss.Top,
			m.viewport.View(),
			m.renderState(),
		)
		s = lipgloss.JoinVertical(lipgloss.Left,
			mainView,
			m.renderPanel(),
		)
	}

	if m.status != "" {
		s += "\n" + helpStyle.Render(m.status)
	}
	return "\n" + s + "\n"
}

// refresh rebuilds the log view from the session.
func (m *Model) refresh() {
	st := m.opts.Session.State()
	width := m.viewport.Width

	var b strings.Builder
	for _, line := range st.Log {
		if strings.HasPrefix(line, "——") {
			b.WriteString(weekStyle.Render(line))
		} else {
			b.WriteString(gameStyle.Width(width).Render(line))
		}
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m Model) renderTalents() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("选择天赋") + "\n\n")
	for i, t := range m.opts.Content.Talents {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		mark := "[ ]"
		if m.picked[t.ID] {
			mark = "[x]"
		}
		fmt.Fprintf(&b, "%s%s %s (%+d) %s\n", cursor, mark, t.Name, t.Cost, helpStyle.Render(t.Description))
	}

	oi := "否"
	if m.oi {
		oi = "是"
	}
	fmt.Fprintf(&b, "\n天赋点：%d / %d\n难度：%s\nOI 竞赛：%s\n\n", m.spent(), engine.TalentBudget, m.difficulty, oi)
	b.WriteString(helpStyle.Render("↑↓ 移动  空格/x 选择  d 切换难度  o 切换竞赛  回车开始"))
	return b.String()
}

func (m Model) renderShop() string {
	st := m.opts.Session.State()
	var b strings.Builder
	fmt.Fprintf(&b, "%s  余额 %.0f 元\n\n", titleStyle.Render("小卖部"), st.General.Money)
	for i, it := range m.opts.Content.Items {
		owned := ""
		if !it.Consumable && st.HasItem(it.ID) {
			owned = "（已拥有）"
		}
		fmt.Fprintf(&b, "%d. %s ¥%.0f%s %s\n", i+1, it.Name, it.Price, owned, helpStyle.Render(it.Description))
	}

	if usable := usableItems(m.opts.Content, &st); len(usable) > 0 {
		b.WriteString("\n" + titleStyle.Render("背包") + "\n")
		for i, it := range usable {
			count := 0
			for _, id := range st.Inventory {
				if id == it.ID {
					count++
				}
			}
			fmt.Fprintf(&b, "%c. 使用%s ×%d\n", 'a'+i, it.Name, count)
		}
	}
	b.WriteString("\n" + helpStyle.Render("数字 购买  字母 使用  esc 返回"))
	return b.String()
}

func (m Model) renderState() string {
	st := m.opts.Session.State()
	if st.Phase == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(st.PlayerName) + "\n")
	fmt.Fprintf(&b, "%s 第 %d 周\n", st.Phase.DisplayName(), st.Week)
	if st.ClassTier != "" {
		b.WriteString(st.ClassTier + "\n")
	}
	if m.paused {
		b.WriteString("（已暂停）\n")
	}

	b.WriteString("\n" + titleStyle.Render("属性") + "\n")
	for _, name := range models.GeneralStatNames {
		v, _ := st.General.Get(name)
		fmt.Fprintf(&b, "%s %.1f\n", models.StatDisplayName(name), v)
	}

	if len(st.Subjects) > 0 {
		b.WriteString("\n" + titleStyle.Render("学科") + "\n")
		for _, sub := range st.StudiedSubjects() {
			fmt.Fprintf(&b, "%s %.1f\n", sub.DisplayName(), st.Subjects[sub].Level)
		}
	}

	if len(st.Statuses) > 0 {
		b.WriteString("\n" + titleStyle.Render("状态") + "\n")
		for _, s := range st.Statuses {
			fmt.Fprintf(&b, "%s%s (%d)\n", s.Icon, s.Name, s.Duration)
		}
	}

	var extras []string
	if st.Club != "" {
		if c, ok := m.opts.Content.Club(st.Club); ok {
			extras = append(extras, "社团："+c.Name)
		}
	}
	if st.Partner != "" {
		extras = append(extras, "恋人："+st.Partner)
	}
	if len(st.Inventory) > 0 {
		extras = append(extras, fmt.Sprintf("物品 %d 件", len(st.Inventory)))
	}
	if len(extras) > 0 {
		b.WriteString("\n" + strings.Join(extras, "\n") + "\n")
	}

	width := int(float64(m.width) * 0.27)
	return stateStyle.Width(width).Height(m.viewport.Height).Render(b.String())
}

// renderPanel draws whatever the game is waiting on.
func (m Model) renderPanel() string {
	st := m.opts.Session.State()
	var b strings.Builder

	for _, n := range st.Notifications {
		b.WriteString(toastStyle.Render("成就解锁：" + n.Name + " · " + n.Description))
		b.WriteString("\n")
	}

	var help string
	switch engine.PendingOf(&st) {
	case engine.PendingNone:
		help = "p 暂停/继续  s 小卖部  q 退出"

	case engine.PendingEvent:
		if ev := st.CurrentEvent; ev != nil {
			b.WriteString(titleStyle.Render(ev.Title) + "\n")
			b.WriteString(gameStyle.Width(max(m.width-4, 20)).Render(ev.Description) + "\n\n")
			for i, ch := range ev.Choices {
				b.WriteString(choiceStyle.Render(fmt.Sprintf("%d. %s", i+1, ch.Text)) + "\n")
			}
		}
		help = "数字键选择"

	case engine.PendingEventResult:
		r := st.EventResult
		b.WriteString(titleStyle.Render(r.Title) + "\n")
		if r.Message != "" {
			b.WriteString(r.Message + "\n")
		}
		b.WriteString(r.Summary + "\n")
		help = "回车继续"

	case engine.PendingWeekend:
		fmt.Fprintf(&b, "%s  行动点 %d\n", titleStyle.Render("周末"), st.ActionPoints)
		for i, a := range availableActivities(m.opts.Content, &st) {
			fmt.Fprintf(&b, "%d. %s (%d) %s\n", i+1, a.Name, max(a.Cost, 1), helpStyle.Render(a.Description))
		}
		help = "数字键安排活动  s 小卖部  回车结束周末"

	case engine.PendingClubSelection:
		b.WriteString(titleStyle.Render("社团招新") + "\n")
		for i, c := range m.opts.Content.Clubs {
			fmt.Fprintf(&b, "%d. %s %s\n", i+1, c.Name, helpStyle.Render(c.Description))
		}
		help = "数字键加入  x 不参加"

	case engine.PendingSubjectSelection:
		b.WriteString(titleStyle.Render("选择三门选考科目") + "\n")
		for i, sub := range models.ElectiveSubjects {
			mark := "[ ]"
			if slices.Contains(m.electives, sub) {
				mark = "[x]"
			}
			fmt.Fprintf(&b, "%d. %s %s\n", i+1, mark, sub.DisplayName())
		}
		help = "数字键勾选  回车确认"

	case engine.PendingExam:
		b.WriteString(titleStyle.Render(st.Phase.DisplayName()) + "\n")
		help = "回车进入考场"

	case engine.PendingExamResult:
		b.WriteString(renderExam(st.ExamResult))
		help = "回车继续"

	case engine.PendingEnding:
		b.WriteString(m.renderEnding(st))
		help = "n 新游戏  q 退出"
	}

	return panelStyle.Render(strings.TrimRight(b.String(), "\n")) + "\n" + helpStyle.Render(help)
}

func renderExam(r *models.ExamResult) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(r.Kind.DisplayName()+"成绩") + "\n")
	for _, line := range r.Scores {
		fmt.Fprintf(&b, "%s %d / %d\n", line.Name, line.Score, line.Max)
	}
	fmt.Fprintf(&b, "总分 %d / %d\n", r.Total, r.Max)
	if r.Rank > 0 {
		fmt.Fprintf(&b, "年级排名 %d / %d\n", r.Rank, r.Cohort)
	}
	if r.Tier != "" {
		b.WriteString("分入" + r.Tier + "\n")
	}
	if r.Award != "" {
		b.WriteString("获得 " + r.Award + "\n")
	}
	return b.String()
}

func (m Model) renderEnding(st models.GameState) string {
	ending := engine.EndingScore(st)
	var b strings.Builder
	b.WriteString(titleStyle.Render("结局："+ending.Title) + "\n")
	fmt.Fprintf(&b, "总评分 %d\n", ending.Score)
	if ending.Rank > 0 {
		fmt.Fprintf(&b, "期末排名 %d / %d\n", ending.Rank, engine.CohortSize)
	}
	if len(st.Awards) > 0 {
		b.WriteString("奖项：" + strings.Join(st.Awards, "、") + "\n")
	}
	fmt.Fprintf(&b, "成就 %d / %d\n", len(st.Achievements), len(m.opts.Content.Achievements))

	switch {
	case m.boardErr != nil:
		b.WriteString(helpStyle.Render("排行榜暂时无法访问") + "\n")
	case len(m.board) > 0:
		b.WriteString("\n" + titleStyle.Render("排行榜") + "\n")
		for i, e := range m.board {
			fmt.Fprintf(&b, "%2d. %s %d %s\n", i+1, e.PlayerName, e.Score, e.Details.Title)
		}
	}
	return b.String()
}
