package ai

import (
	"fmt"
	"strings"

	"github.com/thanhpv/careminder/internal/model"
)

const (
	systemNoteAnalysis = "Bạn là AI phân tích ghi chú thông minh. Trả lời CHỈ JSON, không có text khác."
	systemDiarySummary = "Bạn là trợ lý tóm tắt nhật ký cho người cao tuổi."
	systemEmotion      = "Bạn là chuyên gia phân tích cảm xúc."
	systemMemoryPrompt = "Bạn là trợ lý tạo câu hỏi gợi nhớ cho người cao tuổi."
	systemHealthTrend  = "Bạn là trợ lý sức khỏe AI, không phải bác sĩ, chỉ đưa ra lời khuyên tham khảo."
	systemChat         = "Bạn là trợ lý AI thân thiện, hỗ trợ người cao tuổi. Luôn lịch sự, kiên nhẫn và dễ hiểu."
)

// buildNotePrompt embeds the note text and, when present, a compact medical
// summary from the profile. The profile only biases category and priority
// judgement; it never changes derivation rules.
func buildNotePrompt(content string, profile *model.UserProfile) string {
	var sb strings.Builder
	if profile != nil {
		sb.WriteString("Thông tin người dùng:\n")
		if profile.FullName != "" {
			fmt.Fprintf(&sb, "- Tên: %s\n", profile.FullName)
		}
		if profile.Age > 0 {
			fmt.Fprintf(&sb, "- Tuổi: %d\n", profile.Age)
		}
		fmt.Fprintf(&sb, "- Bệnh lý: %s\n", joinOr(profile.MedicalConditions, "Không có"))
		fmt.Fprintf(&sb, "- Thuốc đang dùng: %s\n", joinOr(profile.Medications, "Không có"))
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, `Phân tích ghi chú sau và trả lời CHÍNH XÁC theo format JSON (không thêm text nào khác):

Ghi chú: %q

{
  "category": "medication|event|appointment|task|health|other",
  "extracted_datetime": "YYYY-MM-DD HH:MM hoặc null",
  "priority": "high|medium|low",
  "should_create_reminder": true|false,
  "reminder_suggestion": "Gợi ý tiêu đề nhắc nhở (nếu có)",
  "analysis": "Giải thích ngắn gọn"
}`, content)
	return sb.String()
}

func buildSummaryPrompt(content string) string {
	return fmt.Sprintf(`Hãy TÓM TẮT nhật ký sau đây một cách ngắn gọn, dễ hiểu, ấm áp và có cảm xúc.
Nên giữ lại các chi tiết quan trọng về: người, địa điểm, cảm xúc, sự kiện đặc biệt.

Nhật ký gốc:
%s

Tóm tắt (2-3 câu ngắn gọn):`, content)
}

func buildEmotionPrompt(content string) string {
	return fmt.Sprintf(`Phân tích cảm xúc chính trong đoạn text sau của người cao tuổi.
Trả lời CHỈ MỘT TỪ: vui_vẻ, hạnh_phúc, buồn, lo_lắng, bình_thường, nhớ_nhung, biết_ơn, cô_đơn

Text: %s

Cảm xúc:`, content)
}

func buildMemoryPrompt(diaries []model.DiaryEntry, memories []model.Memory, profile *model.UserProfile) string {
	var sb strings.Builder
	sb.WriteString("Bạn là trợ lý AI thân thiện giúp người cao tuổi gợi nhớ lại kỷ niệm.\n\n")

	if profile != nil {
		sb.WriteString("Thông tin cá nhân:\n")
		fmt.Fprintf(&sb, "- Sở thích: %s\n\n", joinOr(profile.Hobbies, "Chưa có"))
	}

	sb.WriteString("Nhật ký gần đây:\n")
	if len(diaries) == 0 {
		sb.WriteString("Chưa có nhật ký\n")
	}
	for _, d := range diaries {
		text := d.Summary
		if text == "" {
			text = truncate(d.Content, 100)
		}
		fmt.Fprintf(&sb, "- %s\n", text)
	}

	sb.WriteString("\nKý ức đã lưu:\n")
	if len(memories) == 0 {
		sb.WriteString("Chưa có ký ức\n")
	}
	for _, m := range memories {
		fmt.Fprintf(&sb, "- %s\n", truncate(m.Content, 100))
	}

	sb.WriteString(`
Yêu cầu:
- Tạo MỘT câu hỏi gợi mở sâu sắc, ấm áp để khơi gợi ký ức đẹp
- Câu hỏi phải tự nhiên, thân mật như cháu hỏi ông bà
- Liên kết với thông tin cá nhân, sở thích, nhật ký gần đây
- Gợi mở về: gia đình, tuổi thơ, món ăn, địa điểm, con người...

Câu hỏi gợi nhớ:`)
	return sb.String()
}

func buildHealthPrompt(logs []model.HealthLog, profile *model.UserProfile) string {
	var sb strings.Builder
	if profile != nil && len(profile.MedicalConditions) > 0 {
		fmt.Fprintf(&sb, "Bệnh lý hiện tại: %s\n\n", strings.Join(profile.MedicalConditions, ", "))
	}

	sb.WriteString("Dữ liệu sức khỏe gần đây:\n")
	for _, log := range logs {
		fmt.Fprintf(&sb, "- %s: %s (%s)\n", log.LogType, log.Value, log.CreatedAt.Format("2006-01-02"))
	}

	sb.WriteString(`
Hãy phân tích xu hướng sức khỏe và đưa ra lời khuyên ngắn gọn (2-3 câu), thân thiện, dễ hiểu cho người cao tuổi.
Nếu thấy dấu hiệu bất thường, khuyên nên gặp bác sĩ.`)
	return sb.String()
}

func buildChatPrompt(message string, history []model.ChatMessage, profile *model.UserProfile) string {
	var sb strings.Builder
	if profile != nil {
		sb.WriteString("Thông tin người dùng:\n")
		if profile.FullName != "" {
			fmt.Fprintf(&sb, "- Tên: %s\n", profile.FullName)
		}
		if profile.Age > 0 {
			fmt.Fprintf(&sb, "- Tuổi: %d\n", profile.Age)
		}
		fmt.Fprintf(&sb, "- Sở thích: %s\n\n", joinOr(profile.Hobbies, "Chưa rõ"))
	}

	sb.WriteString("Lịch sử hội thoại:\n")
	if len(history) == 0 {
		sb.WriteString("Đây là cuộc trò chuyện mới\n")
	}
	for _, msg := range history {
		fmt.Fprintf(&sb, "%s: %s\n", msg.Role, msg.Content)
	}

	fmt.Fprintf(&sb, "\nTin nhắn hiện tại: %s\n\nHãy trả lời thân thiện, ấm áp như một người cháu đang trò chuyện với ông bà.", message)
	return sb.String()
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
