package rules

import "github.com/pario-ai/promptsmith/pkg/models"

// ServiceName is how the service introduces itself. Identity answers must
// never name the upstream model, its vendor or brand.
const ServiceName = "Promptsmith"

// Default returns the built-in rule table. Identity questions come first so
// they take precedence over the canned-answer rules.
func Default() *Engine {
	return MustNew(DefaultRules()...)
}

// DefaultRules returns a fresh copy of the built-in rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "identity",
			Kind: Keyword,
			Patterns: []string{
				"who are you", "what are you", "what is your name", "what's your name",
				"who made you", "who created you", "who built you", "who developed you",
				"who trained you", "which model are you", "what model are you",
				"what model do you use", "are you chatgpt", "are you gpt", "are you openai",
				"are you claude", "are you gemini", "are you a bot", "are you human",
				"من أنت", "من انت", "ما اسمك", "ما هو اسمك", "من صنعك", "من طورك",
				"من برمجك", "من انشأك", "من دربك", "ما هو النموذج", "اي نموذج انت",
				"هل انت شات جي بي تي", "هل انت روبوت", "هل انت انسان",
			},
			Responses: map[models.Language]string{
				models.LanguageEnglish: "I'm " + ServiceName + ", an assistant that turns your ideas into professional, ready-to-use prompts for text, image, video and code tools. Describe what you want and I'll craft the prompt for you.",
				models.LanguageArabic:  "أنا " + ServiceName + "، مساعد يحوّل أفكارك إلى برومبتات احترافية جاهزة للاستخدام في أدوات النصوص والصور والفيديو والبرمجة. صف ما تريد وسأكتب لك البرومبت المناسب.",
			},
			Category: models.CategoryText,
		},
		{
			Name: "capabilities",
			Kind: Keyword,
			Patterns: []string{
				"what can you do", "how do you work", "how can you help", "help me use you",
				"ماذا تستطيع", "ماذا يمكنك", "كيف تعمل", "كيف تساعدني",
			},
			Responses: map[models.Language]string{
				models.LanguageEnglish: "Send me a short idea and pick a type (text, image, video or code). I'll return a detailed prompt with role, style, format and constraints that you can paste into your favourite tool.",
				models.LanguageArabic:  "أرسل لي فكرة قصيرة واختر النوع (نص، صورة، فيديو أو كود). سأعيد لك برومبتاً مفصلاً يحدد الدور والأسلوب والتنسيق والقيود لتستخدمه في أداتك المفضلة.",
			},
			Category: models.CategoryText,
		},
		{
			Name:     "greeting",
			Kind:     Regex,
			Patterns: []string{`^(hi|hello|hey|good morning|good evening|مرحبا|اهلا|اهلا وسهلا|السلام عليكم|صباح الخير|مساء الخير)$`},
			Responses: map[models.Language]string{
				models.LanguageEnglish: "Hello! Tell me your idea and I'll turn it into a professional prompt.",
				models.LanguageArabic:  "أهلاً بك! أخبرني بفكرتك وسأحوّلها إلى برومبت احترافي.",
			},
			Category: models.CategoryText,
		},
		{
			Name:     "thanks",
			Kind:     Regex,
			Patterns: []string{`^(thanks|thank you|thx|thank you so much|شكرا|شكرا لك|شكرا جزيلا)$`},
			Responses: map[models.Language]string{
				models.LanguageEnglish: "You're welcome! Send another idea whenever you're ready.",
				models.LanguageArabic:  "على الرحب والسعة! أرسل فكرة أخرى متى شئت.",
			},
			Category: models.CategoryText,
		},
		{
			Name: "quote",
			Kind: Keyword,
			Patterns: []string{
				"give me a quote", "inspirational quote", "motivational quote", "quote of the day",
				"اقتباس ملهم", "اقتباس تحفيزي", "حكمة اليوم", "اعطني حكمة",
			},
			Responses: map[models.Language]string{
				models.LanguageEnglish: "\"The secret of getting ahead is getting started.\" — Mark Twain",
				models.LanguageArabic:  "«من جدّ وجد، ومن زرع حصد.»",
			},
			Category: models.CategoryText,
		},
		{
			Name: "email-template",
			Kind: Regex,
			Patterns: []string{
				`^(?:write |give me |create )?(?:an |a )?(?:email|mail) template (?:for|about) (?P<topic>.+)$`,
				`^(?:اكتب |اعطني )?قالب (?:بريد|ايميل|رسالة) (?:عن|ل|بخصوص) (?P<topic>.+)$`,
			},
			Responses: map[models.Language]string{
				models.LanguageEnglish: "Subject: {topic}\n\nDear [Name],\n\nI hope this message finds you well. I'm writing regarding {topic}. [Add the key details here.]\n\nPlease let me know if you have any questions.\n\nBest regards,\n[Your Name]",
				models.LanguageArabic:  "الموضوع: {topic}\n\nعزيزي [الاسم]،\n\nتحية طيبة وبعد، أكتب إليك بخصوص {topic}. [أضف التفاصيل الأساسية هنا.]\n\nيسعدني الرد على أي استفسار.\n\nمع خالص التحية،\n[اسمك]",
			},
			Category: models.CategoryText,
		},
		{
			Name: "hello-world",
			Kind: Keyword,
			Patterns: []string{
				"hello world program", "hello world in python", "hello world code",
				"برنامج hello world", "كود hello world",
			},
			Responses: map[models.Language]string{
				models.LanguageEnglish: "# Print a greeting to standard output\ndef main():\n    print(\"Hello, World!\")\n\n\nif __name__ == \"__main__\":\n    main()",
				models.LanguageArabic:  "# طباعة رسالة ترحيب على الشاشة\ndef main():\n    print(\"Hello, World!\")\n\n\nif __name__ == \"__main__\":\n    main()",
			},
			Category: models.CategoryCode,
		},
	}
}
