package generator

const generateInstruction = `You are an expert presentation content generator. Your task is to generate a comprehensive presentation on the user's topic. You MUST return the slide content as a single JSON object (with a top-level 'slides' array), strictly adhering to the defined schema. Do not add any commentary or surrounding text.`

const editInstruction = `You are a presentation editor. Your task is to update the provided JSON object of slides based on the user's specific editing request. You MUST return the complete, modified JSON object (including the outer 'slides' array) only. Do not add any commentary or surrounding text. The structure must strictly adhere to the defined schema.`

const generateTemplate = `TOPIC: "${topic}"`

const editTemplate = "CURRENT SLIDE JSON TO EDIT:\n```json\n${deck}\n```\n\nUSER EDIT REQUEST: \"${request}\""
