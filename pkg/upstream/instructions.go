package upstream

import (
	"strings"

	"github.com/pario-ai/promptsmith/pkg/models"
)

const userTextSlot = "{user_text}"

var baseRole = map[models.Language]string{
	models.LanguageEnglish: `You are a world-class prompt engineering expert. Your mission is to transform simple ideas into professional, detailed prompts that produce outstanding results.

CRITICAL RULES:
- The prompt MUST be specific, detailed and crystal clear
- Include precise technical and aesthetic details
- Do NOT write plain conversational text, write executable prompts
- Use professional terminology
- Do NOT add explanations, return ONLY the professional prompt
- Never mention any AI product, model, company or brand by name

`,
	models.LanguageArabic: `أنت خبير عالمي في هندسة البرومبتات. مهمتك تحويل الأفكار البسيطة إلى برومبتات احترافية ومفصلة تعطي نتائج مذهلة.

قواعد أساسية:
- يجب أن يكون البرومبت محدداً ومفصلاً وواضحاً تماماً
- أضف تفاصيل تقنية وجمالية دقيقة
- لا تكتب نصاً حوارياً عادياً، اكتب برومبتات قابلة للتنفيذ
- استخدم مصطلحات احترافية
- لا تضف أي شرح، أعد البرومبت الاحترافي فقط
- لا تذكر اسم أي منتج أو نموذج أو شركة ذكاء اصطناعي

`,
}

var tasks = map[models.Language]map[models.Category]string{
	models.LanguageEnglish: {
		models.CategoryImage: `### TASK:
Transform the following idea into a professional image generation prompt.

### PROMPT REQUIREMENTS:
1. Describe the main scene with extreme precision
2. Specify artistic style (photorealistic, anime, oil painting, 3D render, cinematic)
3. Mention lighting, colors and mood
4. Define image quality (8K, ultra detailed, sharp focus, HDR)
5. Specify camera angle and composition
6. Keep under 200 words

### INPUT TEXT:
"""
{user_text}
"""

### PROFESSIONAL PROMPT (prompt only, no extra text):`,
		models.CategoryVideo: `### TASK:
Transform the following idea into a professional cinematic video generation prompt.

### PROMPT REQUIREMENTS:
1. Describe motion and main action precisely
2. Specify duration (typically 5-10 seconds)
3. Define shot type (close-up, wide shot, tracking shot, aerial view)
4. Specify style (cinematic, documentary, slow motion, time-lapse)
5. Mention lighting, mood and camera movement

### INPUT TEXT:
"""
{user_text}
"""

### PROFESSIONAL VIDEO PROMPT (prompt only, no extra text):`,
		models.CategoryCode: `### TASK:
Write clean, professional code for the following task.

### CODE REQUIREMENTS:
1. Choose an appropriate language (Python if not specified)
2. Write clean, readable code with helpful comments
3. Follow best practices and include error handling
4. Write ONLY code with comments, no explanatory prose

### REQUESTED TASK:
"""
{user_text}
"""

### PROFESSIONAL CODE (code only, no extra text):`,
		models.CategoryText: `### TASK:
Transform this idea into a professional text generation prompt.

### PROMPT REQUIREMENTS:
1. Define the role and required expertise clearly
2. Explain the task precisely
3. Specify style, tone and expected length
4. Define the format (article, list, bullet points)
5. Add specific constraints or requirements

### INPUT TEXT:
"""
{user_text}
"""

### PROFESSIONAL TEXT PROMPT (prompt only, no extra text):`,
	},
	models.LanguageArabic: {
		models.CategoryImage: `### المهمة:
حوّل الفكرة التالية إلى برومبت احترافي لتوليد الصور.

### متطلبات البرومبت:
1. صف المشهد الرئيسي بدقة متناهية
2. حدد الأسلوب الفني (واقعي، أنمي، لوحة زيتية، ثلاثي الأبعاد، سينمائي)
3. اذكر الإضاءة والألوان والأجواء
4. حدد جودة الصورة (8K، تفاصيل عالية، تركيز حاد)
5. حدد زاوية الكاميرا والتكوين
6. أقل من 200 كلمة

### النص المدخل:
"""
{user_text}
"""

### البرومبت الاحترافي (فقط البرومبت بدون أي كلام إضافي):`,
		models.CategoryVideo: `### المهمة:
حوّل الفكرة التالية إلى برومبت فيديو سينمائي احترافي.

### متطلبات البرومبت:
1. صف الحركة والحدث الرئيسي بدقة
2. حدد مدة الفيديو (عادة 5-10 ثوانٍ)
3. حدد نوع اللقطة (قريبة، واسعة، تتبع، جوية)
4. حدد الأسلوب (سينمائي، وثائقي، حركة بطيئة)
5. اذكر الإضاءة والأجواء وحركة الكاميرا

### النص المدخل:
"""
{user_text}
"""

### برومبت الفيديو الاحترافي (فقط البرومبت بدون أي كلام إضافي):`,
		models.CategoryCode: `### المهمة:
اكتب كوداً احترافياً ونظيفاً للمهمة التالية.

### متطلبات الكود:
1. اختر لغة برمجة مناسبة (بايثون إن لم تُحدد)
2. كود نظيف ومقروء مع تعليقات مفيدة
3. اتبع أفضل الممارسات وأضف معالجة الأخطاء
4. اكتب الكود مع التعليقات فقط بدون شرح نصي

### المهمة المطلوبة:
"""
{user_text}
"""

### الكود الاحترافي (فقط الكود بدون أي كلام إضافي):`,
		models.CategoryText: `### المهمة:
حوّل هذه الفكرة إلى برومبت نصي احترافي لأدوات توليد المحتوى.

### متطلبات البرومبت:
1. حدد الدور والخبرة المطلوبة بوضوح
2. اشرح المهمة بدقة وتفصيل
3. حدد الأسلوب واللهجة والطول المتوقع
4. حدد التنسيق المطلوب (مقال، قائمة، نقاط)
5. أضف القيود أو المتطلبات الخاصة

### النص المدخل:
"""
{user_text}
"""

### البرومبت النصي الاحترافي (فقط البرومبت بدون أي كلام إضافي):`,
	},
}

var userLead = map[models.Language]string{
	models.LanguageEnglish: "Transform this into a professional prompt: ",
	models.LanguageArabic:  "حوّل هذا إلى برومبت احترافي: ",
}

// SystemInstruction returns the instruction for a category and language with
// text embedded. Unknown pairs fall back to English text.
func SystemInstruction(cat models.Category, lang models.Language, text string) string {
	byCat, ok := tasks[lang]
	if !ok {
		lang, byCat = models.LanguageEnglish, tasks[models.LanguageEnglish]
	}
	task, ok := byCat[cat]
	if !ok {
		task = byCat[models.CategoryText]
	}
	return baseRole[lang] + strings.ReplaceAll(task, userTextSlot, text)
}

// UserMessage returns the user turn sent alongside the instruction.
func UserMessage(lang models.Language, text string) string {
	lead, ok := userLead[lang]
	if !ok {
		lead = userLead[models.LanguageEnglish]
	}
	return lead + text
}
